package features

import "github.com/roach88/featuregraph/internal/object"

// Sketch is a rectangular profile.
type Sketch struct {
	Width  *object.Float
	Height *object.Float
	Out    *object.Float // area
}

// NewSketch declares a sketch's properties.
func NewSketch(o *object.Object) object.Behavior {
	return &Sketch{
		Width:  o.AddFloat("Width", 10),
		Height: o.AddFloat("Height", 10),
		Out:    o.AddFloat("Area", 0).AsOutput(),
	}
}

// Area implements Profile.
func (s *Sketch) Area() float64 {
	return s.Out.Get()
}

// Execute computes the area. Non-positive dimensions fail.
func (s *Sketch) Execute(ctx *object.ExecContext) object.Result {
	w, h := s.Width.Get(), s.Height.Get()
	if w <= 0 || h <= 0 {
		return ctx.Fail("dimensions must be positive, got %gx%g", w, h)
	}
	return changedResult(setOutput(s.Out, w*h))
}
