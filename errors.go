package datamodel

import (
	"errors"
	"fmt"
	"reflect"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotRegistered is returned when a type has no schema descriptor.
	ErrNotRegistered = errors.New("datamodel: type is not registered")

	// ErrReservedColumn is returned when a caller uses the reserved paging alias as a column.
	ErrReservedColumn = errors.New("datamodel: reserved column name")
)

// DesignError reports a caller or programmer mistake in the mapping
// declarations, such as a type without a schema descriptor. It is not
// retryable.
type DesignError struct {
	Type   reflect.Type // Offending type, if known
	Reason string
	Err    error // Optional underlying error
}

// Error returns the error string.
func (e *DesignError) Error() string {
	switch {
	case e.Type != nil && e.Reason != "":
		return fmt.Sprintf("datamodel: design error on %s: %s", e.Type, e.Reason)
	case e.Type != nil:
		return fmt.Sprintf("datamodel: design error on %s", e.Type)
	default:
		return fmt.Sprintf("datamodel: design error: %s", e.Reason)
	}
}

// Unwrap returns the underlying error.
func (e *DesignError) Unwrap() error {
	return e.Err
}

// NewDesignError returns a new DesignError for the given type.
func NewDesignError(t reflect.Type, reason string, err error) *DesignError {
	return &DesignError{Type: t, Reason: reason, Err: err}
}

// IsDesignError returns true if the error is a DesignError.
func IsDesignError(err error) bool {
	if err == nil {
		return false
	}
	var e *DesignError
	return errors.As(err, &e) || errors.Is(err, ErrNotRegistered) || errors.Is(err, ErrReservedColumn)
}

// ConversionError reports a failure to convert a column value into the
// destination field while reading a row.
type ConversionError struct {
	Column string // Source column
	Field  string // Destination struct field
	Value  any    // Offending value
	Err    error  // Underlying cause
}

// Error returns the error string.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("datamodel: converting column %q to field %s (value %v): %v", e.Column, e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsConversionError returns true if the error is a ConversionError.
func IsConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConversionError
	return errors.As(err, &e)
}

// Fault is the error view of a failed Result.
type Fault struct {
	Kind        ErrorKind
	Item        string
	Explanation string
}

// Error returns the error string.
func (e *Fault) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("datamodel: %s: %s", e.Kind, e.Explanation)
	}
	return fmt.Sprintf("datamodel: %s (%s): %s", e.Kind, e.Item, e.Explanation)
}

// Is reports whether target is a Fault of the same kind.
func (e *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Kind == e.Kind && t.Item == "" && t.Explanation == ""
}

// KindOf returns the ErrorKind carried by err, or None if err is nil.
// Errors that are not a Fault report SupportFailed.
func KindOf(err error) ErrorKind {
	if err == nil {
		return None
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return SupportFailed
}
