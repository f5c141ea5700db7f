package features

import (
	"slices"

	"github.com/roach88/featuregraph/internal/object"
)

// DatumPlane is a reference plane offset from an optional support.
type DatumPlane struct {
	Support *object.Link
	Offset  *object.Float
	Comment *object.String
	Out     *object.Float // position
}

// NewDatumPlane declares a datum plane's properties.
func NewDatumPlane(o *object.Object) object.Behavior {
	return &DatumPlane{
		Support: o.AddLink("Support"),
		Offset:  o.AddFloat("Offset", 0),
		Comment: o.AddString("Comment", ""),
		Out:     o.AddFloat("Position", 0).AsOutput(),
	}
}

// Position implements Placement.
func (d *DatumPlane) Position() float64 {
	return d.Out.Get()
}

// MustExecute opts out when the comment is the only property edited.
func (d *DatumPlane) MustExecute(o *object.Object) object.MustExecute {
	changed := o.ChangedProperties()
	if len(changed) > 0 && !slices.ContainsFunc(changed, func(n string) bool { return n != "Comment" }) {
		return object.MustExecuteNo
	}
	if o.IsTouched() || len(changed) > 0 {
		return object.MustExecuteYes
	}
	return object.MustExecuteInspect
}

// Execute places the plane at the support's position plus the offset.
func (d *DatumPlane) Execute(ctx *object.ExecContext) object.Result {
	pos := d.Offset.Get()
	if s := d.Support.Get(); s != nil {
		if s.IsError() {
			return object.Failed("Support has errors", s)
		}
		if p, ok := s.Behavior().(Placement); ok {
			pos += p.Position()
		}
	}
	return changedResult(setOutput(d.Out, pos))
}
