package document

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/btree"

	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// Document is the container of a set of objects. It is not safe for
// concurrent use.
type Document struct {
	name     string
	registry *Registry

	byName btree.Map[string, *object.Object]
	order  []*object.Object

	// labels is keyed by the NFC form of each object's label.
	labels map[string]*object.Object

	nextSeq int64
	logger  *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger for structural changes and lost-link warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns an empty document. reg may be nil if objects are only added
// with AddObject.
func New(name string, reg *Registry, opts ...Option) *Document {
	d := &Document{
		name:     name,
		registry: reg,
		labels:   make(map[string]*object.Object),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Logger returns the document's logger.
func (d *Document) Logger() *slog.Logger {
	return d.logger
}

// Name returns the document name.
func (d *Document) Name() string {
	return d.name
}

// Registry returns the type registry, possibly nil.
func (d *Document) Registry() *Registry {
	return d.registry
}

// NewObject builds an object of typeName through the registry and adds it.
// An empty name defaults to the type name.
func (d *Document) NewObject(typeName, name string) (*object.Object, error) {
	if d.registry == nil {
		return nil, fmt.Errorf("new object %q: %w", typeName, ErrUnknownType)
	}
	o, err := d.registry.Build(typeName)
	if err != nil {
		return nil, err
	}
	if err := d.AddObject(o, name); err != nil {
		return nil, err
	}
	return o, nil
}

// AddObject attaches a detached object under a unique form of name. The
// object loses its New bit, is touched, and its Setup hook runs.
func (d *Document) AddObject(o *object.Object, name string) error {
	if name == "" {
		name = o.Type()
	}
	name = d.uniqueName(name)
	if err := d.insert(o, name); err != nil {
		return err
	}
	o.Setup()
	d.logger.Debug("object added", "document", d.name, "object", name, "type", o.Type())
	return nil
}

func (d *Document) insert(o *object.Object, name string) error {
	if _, taken := d.byName.Get(name); taken {
		return fmt.Errorf("insert %q: %w", name, ErrDuplicateName)
	}
	if err := o.Attach(d, name, d.nextSeq+1); err != nil {
		return err
	}
	d.nextSeq++
	d.byName.Set(name, o)
	d.order = append(d.order, o)

	label := o.Label()
	if _, taken := d.labels[ir.NormalizeString(label)]; taken {
		label = d.uniqueLabel(label)
		o.SetLabel(label)
	}
	d.labels[ir.NormalizeString(label)] = o
	return nil
}

// RemoveObject deletes the named object. Every dependent is told about the
// loss and ends up with no link to it; the object's own links are cleared
// before it is detached.
func (d *Document) RemoveObject(name string) error {
	o, err := d.Lookup(name)
	if err != nil {
		return err
	}

	lock := object.Lock(o, object.StatusDelete)
	defer lock.Release()

	o.Unsetup()
	for _, dep := range o.InList() {
		dep.OnLostLink(o)
		if n := dep.DropLinksTo(o); n > 0 {
			d.logger.Warn("lost-link handler kept links, dropping them",
				"document", d.name,
				"object", dep.Name(),
				"lost", name,
				"links", n)
		}
		dep.Touch()
	}
	o.ClearLinks()

	d.byName.Delete(name)
	d.order = slices.DeleteFunc(d.order, func(x *object.Object) bool { return x == o })
	if d.labels[ir.NormalizeString(o.Label())] == o {
		delete(d.labels, ir.NormalizeString(o.Label()))
	}
	o.Detach()

	d.logger.Debug("object removed", "document", d.name, "object", name)
	return nil
}

// RelabelObject changes the label of the named object and returns the label
// actually applied, which gets a numeric suffix if another object already
// uses it.
func (d *Document) RelabelObject(name, label string) (string, error) {
	o, err := d.Lookup(name)
	if err != nil {
		return "", err
	}
	key := ir.NormalizeString(label)
	if owner, taken := d.labels[key]; taken && owner != o {
		label = d.uniqueLabel(label)
		key = ir.NormalizeString(label)
	}
	delete(d.labels, ir.NormalizeString(o.Label()))
	o.SetLabel(label)
	d.labels[key] = o
	return label, nil
}

// Object returns the named object, or nil.
func (d *Document) Object(name string) *object.Object {
	o, _ := d.byName.Get(name)
	return o
}

// Lookup returns the named object or an error wrapping ErrNotFound.
func (d *Document) Lookup(name string) (*object.Object, error) {
	o, ok := d.byName.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", d.name, name, ErrNotFound)
	}
	return o, nil
}

// ObjectByLabel returns the object whose label equals label after NFC
// normalization, or nil.
func (d *Document) ObjectByLabel(label string) *object.Object {
	return d.labels[ir.NormalizeString(label)]
}

// Objects returns all objects in insertion order.
func (d *Document) Objects() []*object.Object {
	return slices.Clone(d.order)
}

// Names returns all object names, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, d.byName.Len())
	d.byName.Scan(func(name string, _ *object.Object) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Len returns the number of objects.
func (d *Document) Len() int {
	return d.byName.Len()
}

// Contains reports whether o is attached to this document.
func (d *Document) Contains(o *object.Object) bool {
	if o == nil || o.Container() != d {
		return false
	}
	found, ok := d.byName.Get(o.Name())
	return ok && found == o
}

// TouchedObjects returns the touched objects in insertion order.
func (d *Document) TouchedObjects() []*object.Object {
	return d.filter((*object.Object).IsTouched)
}

// ErroredObjects returns the errored objects in insertion order.
func (d *Document) ErroredObjects() []*object.Object {
	return d.filter((*object.Object).IsError)
}

func (d *Document) filter(keep func(*object.Object) bool) []*object.Object {
	var out []*object.Object
	for _, o := range d.order {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (d *Document) uniqueName(name string) string {
	name = sanitizeName(name)
	if _, taken := d.byName.Get(name); !taken {
		return name
	}
	stem := strings.TrimRightFunc(name, unicode.IsDigit)
	for n := 1; ; n++ {
		candidate := stem + fmt.Sprintf("%03d", n)
		if _, taken := d.byName.Get(candidate); !taken {
			return candidate
		}
	}
}

func (d *Document) uniqueLabel(label string) string {
	stem := strings.TrimRightFunc(label, unicode.IsDigit)
	for n := 1; ; n++ {
		candidate := stem + fmt.Sprintf("%03d", n)
		if _, taken := d.labels[ir.NormalizeString(candidate)]; !taken {
			return candidate
		}
	}
}

// sanitizeName maps name to an identifier: letters, digits and underscores,
// not starting with a digit.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" {
		return "Unnamed"
	}
	if unicode.IsDigit([]rune(s)[0]) {
		s = "_" + s
	}
	return s
}

// String summarizes the document for logs.
func (d *Document) String() string {
	return d.name + "[" + strconv.Itoa(d.Len()) + " objects]"
}
