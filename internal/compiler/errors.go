package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Validation error codes (E100-E199)
const (
	ErrDocumentNameEmpty = "E100" // document name is required
	ErrObjectNameInvalid = "E101" // object name missing or not an identifier
	ErrDuplicateObject   = "E102" // two objects share a name
	ErrObjectTypeMissing = "E103" // type is required
	ErrUnknownType       = "E104" // type not in the registry
	ErrUndeclaredTarget  = "E105" // link to an object not in the document
	ErrInvalidValue      = "E106" // property value is not a scalar
	ErrPropertyIsLink    = "E107" // same name under properties and links
)

// ValidationError represents a definition validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// First error with a position wins.
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
