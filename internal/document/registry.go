package document

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/featuregraph/internal/object"
)

// Constructor declares the properties of a fresh object and returns the
// behaviour computing it.
type Constructor func(o *object.Object) object.Behavior

// Registry maps type names to constructors.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor for typeName.
func (r *Registry) Register(typeName string, c Constructor) error {
	if _, dup := r.ctors[typeName]; dup {
		return fmt.Errorf("register %q: %w", typeName, ErrDuplicateType)
	}
	r.ctors[typeName] = c
	return nil
}

// Build returns a detached object of typeName with its behaviour attached.
func (r *Registry) Build(typeName string) (*object.Object, error) {
	c, ok := r.ctors[typeName]
	if !ok {
		return nil, fmt.Errorf("build %q: %w", typeName, ErrUnknownType)
	}
	o := object.New(typeName)
	o.SetBehavior(c(o))
	return o, nil
}

// Has reports whether typeName is registered.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.ctors[typeName]
	return ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.ctors))
}
