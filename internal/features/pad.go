package features

import "github.com/roach88/featuregraph/internal/object"

// Pad extrudes a profile.
type Pad struct {
	Profile *object.Link
	Length  *object.Float
	Out     *object.Float // volume
}

// NewPad declares a pad's properties.
func NewPad(o *object.Object) object.Behavior {
	return &Pad{
		Profile: o.AddLink("Profile"),
		Length:  o.AddFloat("Length", 10),
		Out:     o.AddFloat("Volume", 0).AsOutput(),
	}
}

// Volume implements Solid.
func (p *Pad) Volume() float64 {
	return p.Out.Get()
}

// Execute computes area times length. A missing or failed profile fails the
// pad; the latter is attributed to the profile.
func (p *Pad) Execute(ctx *object.ExecContext) object.Result {
	area, fail := profileOf(ctx, p.Profile)
	if fail != nil {
		return *fail
	}
	length := p.Length.Get()
	if length <= 0 {
		return ctx.Fail("length must be positive, got %g", length)
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("pad extruded", "area", area, "length", length)
	}
	return changedResult(setOutput(p.Out, area*length))
}
