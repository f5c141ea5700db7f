package document

import "errors"

var (
	// ErrNotFound is returned when no object has the requested name.
	ErrNotFound = errors.New("object not found")

	// ErrUnknownType is returned when a type name has no constructor.
	ErrUnknownType = errors.New("unknown object type")

	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("object type already registered")

	// ErrDuplicateName is returned when a snapshot names two objects alike.
	ErrDuplicateName = errors.New("duplicate object name")

	// ErrUnknownProperty is returned when a snapshot or definition refers to
	// a property the object's type does not declare.
	ErrUnknownProperty = errors.New("unknown property")
)
