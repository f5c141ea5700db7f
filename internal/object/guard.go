package object

import "slices"

// TestIfLinkAcyclic reports whether adding edges from o to every target
// keeps the graph acyclic. It never mutates. A target equal to o, or one from
// which o is reachable, makes the answer false. A cycle already present in
// the searched part of the graph is returned as a *ConsistencyError.
func (o *Object) TestIfLinkAcyclic(targets ...*Object) (bool, error) {
	for _, t := range targets {
		if t == nil {
			continue
		}
		if t == o {
			return false, nil
		}
		reach, err := t.OutListRecursive()
		if err != nil {
			return false, err
		}
		if slices.Contains(reach, o) {
			return false, nil
		}
	}
	return true, nil
}
