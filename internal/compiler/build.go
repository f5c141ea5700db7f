package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// Build creates a document from spec. Objects are added in declaration
// order, then plain properties are set, then links. The result has every
// object touched, so the first recompute runs all of them.
//
// Validation errors are returned as ValidationError, everything later as
// *CompileError.
func Build(spec *ir.DocumentSpec, reg *document.Registry, opts ...document.Option) (*document.Document, error) {
	if errs := Validate(spec, reg); len(errs) > 0 {
		return nil, errs[0]
	}
	if cycles := AnalyzeCycles(spec); len(cycles) > 0 {
		return nil, &CompileError{
			Field:   fmt.Sprintf("object.%s.links", cycles[0].Path[0]),
			Message: cycles[0].Message,
		}
	}

	doc := document.New(spec.Name, reg, opts...)
	for _, obj := range spec.Objects {
		field := "object." + obj.Name
		o, err := doc.NewObject(obj.Type, obj.Name)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error()}
		}
		if o.Name() != obj.Name {
			return nil, &CompileError{Field: field, Message: fmt.Sprintf("name taken, object was added as %q", o.Name())}
		}
		if obj.Label != "" {
			if _, err := doc.RelabelObject(o.Name(), obj.Label); err != nil {
				return nil, &CompileError{Field: field + ".label", Message: err.Error()}
			}
		}
		if err := setProperties(o, field, obj.Properties); err != nil {
			return nil, err
		}
	}

	for _, obj := range spec.Objects {
		if err := setLinks(doc, doc.Object(obj.Name), obj); err != nil {
			return nil, err
		}
	}

	doc.Logger().Debug("document built", "document", doc.Name(), "objects", doc.Len())
	return doc, nil
}

func setProperties(o *object.Object, field string, props ir.IRObject) error {
	for _, key := range props.SortedKeys() {
		p := o.Property(key)
		if p == nil {
			return &CompileError{
				Field:   field + ".properties." + key,
				Message: fmt.Sprintf("type %q has no property %q", o.Type(), key),
			}
		}
		vp, ok := p.(object.ValueProperty)
		if !ok {
			return &CompileError{
				Field:   field + ".properties." + key,
				Message: "link properties are declared under links",
			}
		}
		if err := vp.SetValue(props[key]); err != nil {
			return &CompileError{Field: field + ".properties." + key, Message: err.Error()}
		}
	}
	return nil
}

func setLinks(doc *document.Document, o *object.Object, obj ir.ObjectSpec) error {
	for _, prop := range obj.LinkNames() {
		field := fmt.Sprintf("object.%s.links.%s", obj.Name, prop)
		lp, ok := o.Property(prop).(object.LinkProperty)
		if !ok {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("type %q has no link property %q", o.Type(), prop),
			}
		}

		targets := make([]*object.Object, 0, len(obj.Links[prop]))
		for _, name := range obj.Links[prop] {
			t, err := doc.Lookup(name)
			if err != nil {
				return &CompileError{Field: field, Message: err.Error()}
			}
			targets = append(targets, t)
		}
		if err := lp.SetTargets(targets); err != nil {
			msg := err.Error()
			if errors.Is(err, object.ErrTooManyTargets) {
				msg = fmt.Sprintf("%s takes a single target, got %d", prop, len(targets))
			}
			return &CompileError{Field: field, Message: msg}
		}
	}
	return nil
}
