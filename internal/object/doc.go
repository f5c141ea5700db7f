// Package object implements the nodes of a featuregraph document.
//
// An Object is one computable feature. It carries:
//
//   - a stable in-document name, a user-facing label and an insertion seq
//   - a Status bit set (touched, error, new, recomputing, restoring,
//     deleting, expanded, plus bits reserved for consumers)
//   - an ordered list of properties, some of which are links to other
//     objects in the same document
//   - a back-link multiset recording which objects link to it
//   - an optional Behavior that computes the object's outputs
//
// Out-edges are never stored. OutList walks the object's link properties in
// declaration order and returns their targets. In-edges (back-links) are the
// only edge direction stored explicitly, and only the link properties in this
// package mutate them, so back-link symmetry holds whenever no link write is
// in flight:
//
//	M in a.OutList()  <=>  a in M.InList()
//
// Every link write asks the cycle guard (TestIfLinkAcyclic) before touching
// any state. A rejected write returns a *LinkError wrapping ErrLinkCycle and
// leaves both edge directions unchanged. Recursive queries use a visited set
// and report a *ConsistencyError with code CYCLE_IN_GRAPH if they meet a
// cycle that already exists.
//
// Property writes touch the owning object. Touches do not propagate eagerly;
// the recompute engine resolves dependents lazily through MustExecute.
//
// Scoped status bits (recompute, restore, delete) are held through a
// StatusLocker:
//
//	lock := object.Lock(obj, object.StatusRecompute)
//	defer lock.Release()
//
// All methods assume a single goroutine owns the document.
package object
