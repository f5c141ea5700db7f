package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/featuregraph/internal/ir"
)

// LoadCUE loads a CUE package directory or a single .cue file. The document
// name defaults to the directory or file name.
//
// Objects are declared as fields of "object", in order:
//
//	document: "Body"
//	object: Sketch: {
//		type: "sketch"
//		properties: {Width: 20}
//	}
//	object: Pad: {
//		type: "pad"
//		links: {Profile: "Sketch"}
//	}
func LoadCUE(path string) (*ir.DocumentSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	name := filepath.Base(path)
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
		name = name[:len(name)-len(filepath.Ext(name))]
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("load definition %s: no CUE instances loaded", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileDocument(value, name)
}

// CompileDocument parses a CUE value holding a definition.
func CompileDocument(v cue.Value, defaultName string) (*ir.DocumentSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.DocumentSpec{Name: defaultName}
	if nameVal := v.LookupPath(cue.ParsePath("document")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Name = name
	}

	objsVal := v.LookupPath(cue.ParsePath("object"))
	if !objsVal.Exists() {
		return nil, &CompileError{
			Field:   "object",
			Message: "at least one object is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := objsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		obj, err := compileObject(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Objects = append(spec.Objects, obj)
	}
	return spec, nil
}

func compileObject(name string, v cue.Value) (ir.ObjectSpec, error) {
	obj := ir.ObjectSpec{Name: name}
	field := "object." + name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return obj, &CompileError{Field: field + ".type", Message: "type is required", Pos: v.Pos()}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return obj, formatCUEError(err)
	}
	obj.Type = typeName

	if labelVal := v.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
		if obj.Label, err = labelVal.String(); err != nil {
			return obj, formatCUEError(err)
		}
	}

	if propsVal := v.LookupPath(cue.ParsePath("properties")); propsVal.Exists() {
		props, err := compileProperties(field+".properties", propsVal)
		if err != nil {
			return obj, err
		}
		obj.Properties = props
	}

	if linksVal := v.LookupPath(cue.ParsePath("links")); linksVal.Exists() {
		links, err := compileLinks(field+".links", linksVal)
		if err != nil {
			return obj, err
		}
		obj.Links = links
	}
	return obj, nil
}

func compileProperties(field string, v cue.Value) (ir.IRObject, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	props := make(ir.IRObject)
	for iter.Next() {
		val, err := scalarValue(iter.Value())
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		props[iter.Label()] = val
	}
	return props, nil
}

// scalarValue converts a concrete CUE scalar.
func scalarValue(v cue.Value) (ir.IRValue, error) {
	if !v.IsConcrete() {
		return nil, fmt.Errorf("value must be concrete")
	}
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return ir.IRInt(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return ir.IRFloat(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return ir.IRString(s), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return ir.IRBool(b), nil
	default:
		return nil, fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}

func compileLinks(field string, v cue.Value) (map[string][]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	links := make(map[string][]string)
	for iter.Next() {
		targets, err := linkTargets(iter.Value())
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		links[iter.Label()] = targets
	}
	return links, nil
}

// linkTargets accepts a single name or a list of names.
func linkTargets(v cue.Value) ([]string, error) {
	if s, err := v.String(); err == nil {
		return []string{s}, nil
	}
	list, err := v.List()
	if err != nil {
		return nil, fmt.Errorf("link targets must be a name or a list of names")
	}
	targets := []string{}
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, fmt.Errorf("link target %d must be a name", len(targets))
		}
		targets = append(targets, s)
	}
	return targets, nil
}
