package engine

import (
	"errors"
	"fmt"
)

// ErrNotInDocument is returned when RecomputeObject is given an object that
// is not attached to the document.
var ErrNotInDocument = errors.New("object is not in the document")

// RecordError reports a pass that completed but could not be persisted.
// The Report returned alongside it is complete.
type RecordError struct {
	Token string
	Err   error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("record pass %s: %v", e.Token, e.Err)
}

// Unwrap returns the recorder's error.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// IsRecordError returns true if err is or wraps a *RecordError.
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}
