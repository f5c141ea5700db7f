package features

import "github.com/roach88/featuregraph/internal/object"

// Group collects other objects. It computes nothing but its member count, so
// it usually reports no change and lets dependents skip.
type Group struct {
	Members *object.LinkList
	Count   *object.Int
}

// NewGroup declares a group's properties.
func NewGroup(o *object.Object) object.Behavior {
	return &Group{
		Members: o.AddLinkList("Members"),
		Count:   o.AddInt("Count", 0).AsOutput(),
	}
}

// Execute updates the member count.
func (g *Group) Execute(*object.ExecContext) object.Result {
	n := int64(g.Members.Len())
	if g.Count.Get() == n {
		return object.NoChange()
	}
	g.Count.Set(n)
	return object.Ok()
}
