package object

import (
	"fmt"
	"math"

	"github.com/roach88/featuregraph/internal/ir"
)

// Property is a named field of an object. The set of implementations is
// closed: scalars (Float, Int, String, Bool) and links (Link, LinkList).
type Property interface {
	Name() string
	Kind() ir.PropertyKind
	Owner() *Object

	// Changed reports a write since the owner's last PurgeTouched.
	Changed() bool

	// IsOutput reports whether the property holds a computed result.
	// Writes to outputs never touch the owner.
	IsOutput() bool

	base() *propBase
}

// ValueProperty is a property holding a plain value.
type ValueProperty interface {
	Property
	Value() ir.IRValue
	SetValue(v ir.IRValue) error
}

type propBase struct {
	name    string
	owner   *Object
	changed bool
	output  bool
}

func (p *propBase) Name() string    { return p.name }
func (p *propBase) Owner() *Object  { return p.owner }
func (p *propBase) Changed() bool   { return p.changed }
func (p *propBase) IsOutput() bool  { return p.output }
func (p *propBase) base() *propBase { return p }

// markChanged records a write and touches the owner. Nothing is recorded
// while the owner is restoring; deleting owners are not touched.
func (p *propBase) markChanged() {
	o := p.owner
	if o == nil || p.output || o.IsRestoring() {
		return
	}
	p.changed = true
	if !o.IsDeleting() {
		o.Touch()
	}
}

type scalarValue interface {
	float64 | int64 | string | bool
}

// Scalar is a plain-valued property.
type Scalar[T scalarValue] struct {
	propBase
	value T
}

type (
	Float  = Scalar[float64]
	Int    = Scalar[int64]
	String = Scalar[string]
	Bool   = Scalar[bool]
)

func newScalar[T scalarValue](name string, def T) *Scalar[T] {
	return &Scalar[T]{propBase: propBase{name: name}, value: def}
}

// AsOutput marks the property as a computed output and returns it.
func (p *Scalar[T]) AsOutput() *Scalar[T] {
	p.output = true
	return p
}

// Get returns the current value.
func (p *Scalar[T]) Get() T {
	return p.value
}

// Set writes the value and touches the owner.
func (p *Scalar[T]) Set(v T) {
	p.value = v
	p.markChanged()
}

// Kind returns the storage kind.
func (p *Scalar[T]) Kind() ir.PropertyKind {
	switch any(p.value).(type) {
	case float64:
		return ir.KindFloat
	case int64:
		return ir.KindInt
	case string:
		return ir.KindString
	default:
		return ir.KindBool
	}
}

// Value returns the value as an ir.IRValue.
func (p *Scalar[T]) Value() ir.IRValue {
	switch v := any(p.value).(type) {
	case float64:
		return ir.IRFloat(v)
	case int64:
		return ir.IRInt(v)
	case string:
		return ir.IRString(v)
	case bool:
		return ir.IRBool(v)
	}
	return ir.IRNull{}
}

// SetValue converts v to the property's kind and writes it. Integers are
// accepted for floats, and integral floats for integers.
func (p *Scalar[T]) SetValue(v ir.IRValue) error {
	var out any
	switch any(p.value).(type) {
	case float64:
		f, ok := ir.AsFloat(v)
		if !ok {
			return p.kindError(v)
		}
		out = f
	case int64:
		switch n := v.(type) {
		case ir.IRInt:
			out = int64(n)
		case ir.IRFloat:
			f := float64(n)
			if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
				return p.kindError(v)
			}
			out = int64(f)
		default:
			return p.kindError(v)
		}
	case string:
		s, ok := v.(ir.IRString)
		if !ok {
			return p.kindError(v)
		}
		out = string(s)
	case bool:
		b, ok := v.(ir.IRBool)
		if !ok {
			return p.kindError(v)
		}
		out = bool(b)
	}
	p.Set(out.(T))
	return nil
}

func (p *Scalar[T]) kindError(v ir.IRValue) error {
	return fmt.Errorf("property %s: %T for %s: %w", p.name, v, p.Kind(), ErrValueKind)
}
