package serializer

import (
	"errors"
	"fmt"
)

///////////////////////////////////////////////////////////////////////////////
// Errors
///////////////////////////////////////////////////////////////////////////////

var (
	ErrNilSchema       = errors.New("nested field declared with a nil schema")
	ErrNotIterable     = errors.New("value is not iterable")
	ErrMethodNotFound  = errors.New("method not found on the schema methods owner")
	ErrBadMethodShape  = errors.New("method must take the object and return a value or a value and an error")
	ErrNoMethodsOwner  = errors.New("schema declares method fields but no Methods owner")
	ErrInvalidField    = errors.New("field was not built with a constructor")
	ErrNotSerializable = errors.New("value cannot be serialized")
	ErrNotCallable     = errors.New("value is not a callable returning a value or a value and an error")
)

// Error reports a projection failure on a required field. The projection is
// aborted as a whole; at the HTTP boundary an escaping Error maps to a 500.
type Error struct {
	Field string // schema name of the failing field
	Err   error  // underlying fetch, call or coercion failure
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("cannot serialize field %q: %v", e.Field, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *Error) Unwrap() error { return e.Err }
