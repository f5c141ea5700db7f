package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/ir"
)

var identifierPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// Validate checks a definition against the registry. A nil registry skips
// type checks. Returns all errors found (does not fail-fast).
func Validate(spec *ir.DocumentSpec, reg *document.Registry) []ValidationError {
	var errs []ValidationError
	if spec.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "document",
			Message: "document name is required",
			Code:    ErrDocumentNameEmpty,
		})
	}

	declared := make(map[string]bool, len(spec.Objects))
	for i, obj := range spec.Objects {
		field := fmt.Sprintf("object.%s", obj.Name)
		if obj.Name == "" {
			field = fmt.Sprintf("objects[%d]", i)
		}

		switch {
		case !identifierPattern.MatchString(obj.Name):
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("%q is not a valid object name", obj.Name),
				Code:    ErrObjectNameInvalid,
			})
		case declared[obj.Name]:
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "object declared twice",
				Code:    ErrDuplicateObject,
			})
		}
		declared[obj.Name] = true

		switch {
		case obj.Type == "":
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: "type is required",
				Code:    ErrObjectTypeMissing,
			})
		case reg != nil && !reg.Has(obj.Type):
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown type %q", obj.Type),
				Code:    ErrUnknownType,
			})
		}

		for _, key := range obj.Properties.SortedKeys() {
			switch obj.Properties[key].(type) {
			case ir.IRString, ir.IRInt, ir.IRFloat, ir.IRBool:
			default:
				errs = append(errs, ValidationError{
					Field:   field + ".properties." + key,
					Message: "value must be a number, string or bool",
					Code:    ErrInvalidValue,
				})
			}
			if _, isLink := obj.Links[key]; isLink {
				errs = append(errs, ValidationError{
					Field:   field + ".properties." + key,
					Message: "declared both as a property and as a link",
					Code:    ErrPropertyIsLink,
				})
			}
		}
	}

	// Targets may be declared after the object linking to them.
	for _, obj := range spec.Objects {
		for _, prop := range obj.LinkNames() {
			for _, target := range obj.Links[prop] {
				if !declared[target] {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("object.%s.links.%s", obj.Name, prop),
						Message: fmt.Sprintf("target %q is not declared", target),
						Code:    ErrUndeclaredTarget,
					})
				}
			}
		}
	}
	return errs
}
