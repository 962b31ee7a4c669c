package nids

import (
	"errors"
	"fmt"
)

var (
	ErrNotScalar     = errors.New("nid field must be a scalar")
	ErrMissingPrefix = errors.New("nid value must start with 0x")
)

// StructureError reports a violation of the required database shape: the
// root, the modules mapping, a module or a library. It aborts the build.
type StructureError struct {
	Path   string
	Reason string
	Err    error
}

func (e *StructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *StructureError) Unwrap() error { return e.Err }

// FieldError is a recoverable problem inside the function list of a single
// library. The builder logs it and keeps the functions inserted so far.
type FieldError struct {
	Library string
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("library %s: %s: %v", e.Library, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// HashFormatError is returned when a nid value is not a scalar of the form
// 0x<hex> fitting in 32 bits.
type HashFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *HashFormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: invalid nid %q: %v", e.Field, e.Value, e.Err)
}

func (e *HashFormatError) Unwrap() error { return e.Err }
