package features

import (
	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/object"
)

// Type names.
const (
	TypeSketch     = "sketch"
	TypePad        = "pad"
	TypePocket     = "pocket"
	TypeDatumPlane = "datum_plane"
	TypeGroup      = "group"
)

// Register installs every feature type in reg.
func Register(reg *document.Registry) error {
	ctors := []struct {
		name string
		ctor document.Constructor
	}{
		{TypeSketch, NewSketch},
		{TypePad, NewPad},
		{TypePocket, NewPocket},
		{TypeDatumPlane, NewDatumPlane},
		{TypeGroup, NewGroup},
	}
	for _, c := range ctors {
		if err := reg.Register(c.name, c.ctor); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every feature type.
func NewRegistry() *document.Registry {
	reg := document.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}

// Profile is implemented by behaviours that expose a closed area.
type Profile interface {
	Area() float64
}

// Solid is implemented by behaviours that expose a volume.
type Solid interface {
	Volume() float64
}

// Placement is implemented by behaviours that expose a position.
type Placement interface {
	Position() float64
}

// profileOf returns the area behind a linked object, or a failure result.
func profileOf(ctx *object.ExecContext, link *object.Link) (float64, *object.Result) {
	target := link.Get()
	if target == nil {
		r := ctx.Fail("%s is not set", link.Name())
		return 0, &r
	}
	if target.IsError() {
		r := object.Failed(link.Name()+" has errors", target)
		return 0, &r
	}
	p, ok := target.Behavior().(Profile)
	if !ok {
		r := ctx.Fail("%s %s is not a profile", link.Name(), target.Name())
		return 0, &r
	}
	return p.Area(), nil
}

// setOutput writes v and reports whether the value changed.
func setOutput(p *object.Float, v float64) bool {
	if p.Get() == v {
		return false
	}
	p.Set(v)
	return true
}

func changedResult(changed bool) object.Result {
	if changed {
		return object.Ok()
	}
	return object.NoChange()
}
