package document

import (
	"fmt"
	"slices"

	"github.com/tidwall/btree"

	"github.com/roach88/featuregraph/internal/object"
)

func lessBySeq(a, b *object.Object) bool {
	if a.Seq() != b.Seq() {
		return a.Seq() < b.Seq()
	}
	return a.Name() < b.Name()
}

// TopologicalOrder orders subset so every object comes after the objects it
// links to. Edges leaving subset are ignored. Among objects whose
// dependencies are all placed, the lowest seq goes first. A nil subset means
// the whole document. A cycle inside subset is a *object.ConsistencyError.
func (d *Document) TopologicalOrder(subset []*object.Object) ([]*object.Object, error) {
	if subset == nil {
		subset = d.order
	}
	member := make(map[*object.Object]bool, len(subset))
	for _, o := range subset {
		member[o] = true
	}

	pending := make(map[*object.Object]int, len(member))
	ready := btree.NewBTreeG[*object.Object](lessBySeq)
	for o := range member {
		n := len(distinctDeps(o, member))
		pending[o] = n
		if n == 0 {
			ready.Set(o)
		}
	}

	order := make([]*object.Object, 0, len(member))
	for ready.Len() > 0 {
		o, _ := ready.PopMin()
		order = append(order, o)
		for _, dep := range o.InList() {
			if !member[dep] {
				continue
			}
			pending[dep]--
			if pending[dep] == 0 {
				ready.Set(dep)
			}
		}
	}

	if len(order) < len(member) {
		var stuck []string
		for o, n := range pending {
			if n > 0 {
				stuck = append(stuck, o.Name())
			}
		}
		slices.Sort(stuck)
		return nil, &object.ConsistencyError{
			Code:    object.CodeCycleInGraph,
			Message: fmt.Sprintf("%d objects cannot be ordered", len(stuck)),
			Path:    stuck,
		}
	}
	return order, nil
}

// distinctDeps returns the members o links to, each once.
func distinctDeps(o *object.Object, member map[*object.Object]bool) []*object.Object {
	var deps []*object.Object
	for _, t := range o.OutList() {
		if member[t] && !slices.Contains(deps, t) {
			deps = append(deps, t)
		}
	}
	return deps
}

// CheckConsistency verifies every link targets an attached object of this
// document, back-links mirror links in both directions and the graph is
// acyclic. The first violation is returned as a *object.ConsistencyError.
func (d *Document) CheckConsistency() error {
	for _, o := range d.order {
		for _, t := range o.OutList() {
			if !d.Contains(t) {
				return &object.ConsistencyError{
					Code:    object.CodeDanglingLink,
					Message: "link target is not in the document",
					Path:    []string{o.Name(), t.Name()},
				}
			}
			if !t.IsInInList(o) {
				return &object.ConsistencyError{
					Code:    object.CodeBackLinkMismatch,
					Message: "link has no matching back-link",
					Path:    []string{o.Name(), t.Name()},
				}
			}
		}
		for _, src := range o.InList() {
			if !d.Contains(src) || !src.IsInOutList(o) {
				return &object.ConsistencyError{
					Code:    object.CodeBackLinkMismatch,
					Message: "back-link has no matching link",
					Path:    []string{src.Name(), o.Name()},
				}
			}
		}
	}
	if _, err := d.TopologicalOrder(nil); err != nil {
		return err
	}
	return nil
}
