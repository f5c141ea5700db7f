package object

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by link writes and document operations.
var (
	// ErrLinkCycle is returned when a link write would close a cycle.
	ErrLinkCycle = errors.New("link would create a cycle")

	// ErrForeignObject is returned when a link target is detached or lives in
	// a different document than the link's owner.
	ErrForeignObject = errors.New("target is not in the owner's document")

	// ErrNilTarget is returned when a nil object is placed in a link list.
	ErrNilTarget = errors.New("link list entries must not be nil")

	// ErrTooManyTargets is returned when more than one target is assigned to
	// a single link.
	ErrTooManyTargets = errors.New("single link accepts at most one target")

	// ErrAlreadyAttached is returned when attaching an object that already
	// belongs to a document.
	ErrAlreadyAttached = errors.New("object is already attached")

	// ErrValueKind is returned when a value does not fit a property's kind.
	ErrValueKind = errors.New("value does not match property kind")
)

// LinkError describes a rejected link write.
type LinkError struct {
	Object   string // owner of the link property
	Property string
	Target   string
	Err      error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("link %s.%s: %v", e.Object, e.Property, e.Err)
	}
	return fmt.Sprintf("link %s.%s -> %s: %v", e.Object, e.Property, e.Target, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// ConsistencyCode categorizes consistency faults.
type ConsistencyCode string

const (
	// CodeCycleInGraph means a traversal met a cycle that already exists.
	CodeCycleInGraph ConsistencyCode = "CYCLE_IN_GRAPH"

	// CodeBackLinkMismatch means in-lists and out-lists disagree.
	CodeBackLinkMismatch ConsistencyCode = "BACKLINK_MISMATCH"

	// CodeDanglingLink means a link points at an object outside the document.
	CodeDanglingLink ConsistencyCode = "DANGLING_LINK"

	// CodeOrderViolation means a dependent was about to run before one of its
	// dependencies in the same pass.
	CodeOrderViolation ConsistencyCode = "ORDER_VIOLATION"
)

// ConsistencyError reports a broken graph invariant. It always indicates a
// prior bug or an uncontrolled mutation and is never recoverable by retrying.
type ConsistencyError struct {
	Code    ConsistencyCode
	Message string

	// Path lists object names involved, e.g. the cycle A -> B -> A.
	Path []string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConsistencyError returns true if err is or wraps a *ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// IsCycleInGraph returns true if err reports a pre-existing cycle.
func IsCycleInGraph(err error) bool {
	var ce *ConsistencyError
	if errors.As(err, &ce) {
		return ce.Code == CodeCycleInGraph
	}
	return false
}

func newCycleError(path []*Object) *ConsistencyError {
	names := make([]string, len(path))
	for i, o := range path {
		names[i] = o.Name()
	}
	return &ConsistencyError{
		Code:    CodeCycleInGraph,
		Message: "graph already contains a cycle",
		Path:    names,
	}
}
