package object

import (
	"fmt"
	"slices"
)

// Container is the document an object is attached to.
type Container interface {
	Name() string
}

// Object is a node of the dependency graph.
type Object struct {
	typeName string
	name     string
	label    string
	seq      int64

	status  Status
	execErr *Result

	behavior  Behavior
	props     []Property
	propIndex map[string]Property

	// backLinks counts, per source object, the link entries pointing here.
	backLinks map[*Object]int

	container Container
}

// New returns a detached object of the given type with the New bit set.
func New(typeName string) *Object {
	o := &Object{
		typeName:  typeName,
		propIndex: make(map[string]Property),
		backLinks: make(map[*Object]int),
	}
	o.SetStatus(StatusNew, true)
	return o
}

// Type returns the registered type name.
func (o *Object) Type() string {
	return o.typeName
}

// Name returns the in-document name. It is empty until the object is
// attached and never changes afterwards.
func (o *Object) Name() string {
	return o.name
}

// Label returns the user-facing label.
func (o *Object) Label() string {
	return o.label
}

// SetLabel changes the label. Documents enforce uniqueness through their
// own relabel operation.
func (o *Object) SetLabel(label string) {
	o.label = label
}

// Seq returns the document insertion sequence, 0 while detached.
func (o *Object) Seq() int64 {
	return o.seq
}

// Container returns the owning document, or nil.
func (o *Object) Container() Container {
	return o.container
}

// Behavior returns the attached behaviour, or nil.
func (o *Object) Behavior() Behavior {
	return o.behavior
}

// SetBehavior attaches the computation.
func (o *Object) SetBehavior(b Behavior) {
	o.behavior = b
}

// Attach binds the object to c under name. The New bit is cleared and the
// object is touched so the next pass computes it.
func (o *Object) Attach(c Container, name string, seq int64) error {
	if o.container != nil {
		return fmt.Errorf("attach %q: %w", name, ErrAlreadyAttached)
	}
	o.container = c
	o.name = name
	if o.label == "" {
		o.label = name
	}
	o.seq = seq
	o.SetStatus(StatusNew, false)
	o.Touch()
	return nil
}

// Detach unbinds the object from its document. Links must have been cleared
// first.
func (o *Object) Detach() {
	o.container = nil
}

func (o *Object) String() string {
	if o.name == "" {
		return "<" + o.typeName + ">"
	}
	return o.name
}

// Property returns the named property, or nil.
func (o *Object) Property(name string) Property {
	return o.propIndex[name]
}

// Properties returns all properties in declaration order.
func (o *Object) Properties() []Property {
	return slices.Clone(o.props)
}

// ChangedProperties returns the names of properties written since the last
// purge.
func (o *Object) ChangedProperties() []string {
	var names []string
	for _, p := range o.props {
		if p.Changed() {
			names = append(names, p.Name())
		}
	}
	return names
}

func (o *Object) addProperty(p Property) {
	name := p.Name()
	if _, dup := o.propIndex[name]; dup {
		panic(fmt.Sprintf("object %s: duplicate property %q", o, name))
	}
	p.base().owner = o
	o.props = append(o.props, p)
	o.propIndex[name] = p
}

// AddFloat declares a float property.
func (o *Object) AddFloat(name string, def float64) *Float {
	p := newScalar(name, def)
	o.addProperty(p)
	return p
}

// AddInt declares an integer property.
func (o *Object) AddInt(name string, def int64) *Int {
	p := newScalar(name, def)
	o.addProperty(p)
	return p
}

// AddString declares a string property.
func (o *Object) AddString(name string, def string) *String {
	p := newScalar(name, def)
	o.addProperty(p)
	return p
}

// AddBool declares a boolean property.
func (o *Object) AddBool(name string, def bool) *Bool {
	p := newScalar(name, def)
	o.addProperty(p)
	return p
}

// AddLink declares a single-target link property.
func (o *Object) AddLink(name string) *Link {
	p := &Link{propBase: propBase{name: name}}
	o.addProperty(p)
	return p
}

// AddLinkList declares an ordered multi-target link property.
func (o *Object) AddLinkList(name string) *LinkList {
	p := &LinkList{propBase: propBase{name: name}}
	o.addProperty(p)
	return p
}
