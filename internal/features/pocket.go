package features

import "github.com/roach88/featuregraph/internal/object"

// Pocket cuts a profile out of a base solid.
type Pocket struct {
	Base    *object.Link
	Profile *object.Link
	Depth   *object.Float
	Out     *object.Float // remaining volume
}

// NewPocket declares a pocket's properties.
func NewPocket(o *object.Object) object.Behavior {
	return &Pocket{
		Base:    o.AddLink("Base"),
		Profile: o.AddLink("Profile"),
		Depth:   o.AddFloat("Depth", 1),
		Out:     o.AddFloat("Volume", 0).AsOutput(),
	}
}

// Volume implements Solid.
func (p *Pocket) Volume() float64 {
	return p.Out.Get()
}

// Execute computes base volume minus area times depth.
func (p *Pocket) Execute(ctx *object.ExecContext) object.Result {
	base := p.Base.Get()
	if base == nil {
		return ctx.Fail("Base is not set")
	}
	if base.IsError() {
		return object.Failed("Base has errors", base)
	}
	solid, ok := base.Behavior().(Solid)
	if !ok {
		return ctx.Fail("Base %s is not a solid", base.Name())
	}
	area, fail := profileOf(ctx, p.Profile)
	if fail != nil {
		return *fail
	}
	remaining := solid.Volume() - area*p.Depth.Get()
	if remaining < 0 {
		return ctx.Fail("pocket removes more than the base holds")
	}
	return changedResult(setOutput(p.Out, remaining))
}
