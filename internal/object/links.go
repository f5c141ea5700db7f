package object

import (
	"cmp"
	"slices"
)

// OutList returns the objects o depends on, derived from its link
// properties in declaration order. An object linked through two entries
// appears twice.
func (o *Object) OutList() []*Object {
	var out []*Object
	for _, p := range o.props {
		if lp, ok := p.(LinkProperty); ok {
			out = append(out, lp.Targets()...)
		}
	}
	return out
}

// InList returns the objects that link to o, ordered by seq.
func (o *Object) InList() []*Object {
	in := make([]*Object, 0, len(o.backLinks))
	for src := range o.backLinks {
		in = append(in, src)
	}
	slices.SortFunc(in, compareObjects)
	return in
}

// IsInOutList reports whether o links directly to other.
func (o *Object) IsInOutList(other *Object) bool {
	return slices.Contains(o.OutList(), other)
}

// IsInInList reports whether other links directly to o.
func (o *Object) IsInInList(other *Object) bool {
	return o.backLinks[other] > 0
}

// OutListRecursive returns every object o depends on, directly or not, in
// depth-first discovery order. It fails with a *ConsistencyError if the
// traversal meets a cycle.
func (o *Object) OutListRecursive() ([]*Object, error) {
	return o.closure(outEdges)
}

// InListRecursive returns every object that depends on o, directly or not.
func (o *Object) InListRecursive() ([]*Object, error) {
	return o.closure(inEdges)
}

// IsInOutListRecursive reports whether o depends on other, directly or not.
func (o *Object) IsInOutListRecursive(other *Object) (bool, error) {
	all, err := o.OutListRecursive()
	if err != nil {
		return false, err
	}
	return slices.Contains(all, other), nil
}

// IsInInListRecursive reports whether other depends on o, directly or not.
func (o *Object) IsInInListRecursive(other *Object) (bool, error) {
	all, err := o.InListRecursive()
	if err != nil {
		return false, err
	}
	return slices.Contains(all, other), nil
}

func outEdges(o *Object) []*Object { return o.OutList() }
func inEdges(o *Object) []*Object  { return o.InList() }

const (
	white = iota
	gray
	black
)

// closure walks edges from o with a three-colour visited set. Meeting a gray
// node means the node is on the current path, i.e. a cycle.
func (o *Object) closure(edges func(*Object) []*Object) ([]*Object, error) {
	color := map[*Object]int{o: gray}
	path := []*Object{o}
	var found []*Object

	var visit func(n *Object) error
	visit = func(n *Object) error {
		for _, next := range edges(n) {
			switch color[next] {
			case gray:
				start := slices.Index(path, next)
				cycle := append(slices.Clone(path[start:]), next)
				return newCycleError(cycle)
			case black:
				continue
			}
			color[next] = gray
			path = append(path, next)
			found = append(found, next)
			if err := visit(next); err != nil {
				return err
			}
			path = path[:len(path)-1]
			color[next] = black
		}
		return nil
	}

	if err := visit(o); err != nil {
		return nil, err
	}
	return found, nil
}

func compareObjects(a, b *Object) int {
	if c := cmp.Compare(a.seq, b.seq); c != 0 {
		return c
	}
	return cmp.Compare(a.name, b.name)
}

// SortObjects orders objects by insertion sequence, then name.
func SortObjects(objs []*Object) {
	slices.SortFunc(objs, compareObjects)
}
