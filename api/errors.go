// Package api defines the HTTP-facing vocabulary of the toolkit: the error
// taxonomy views surface to clients, the method groupings the decoration
// layer gates on, and the JSON response envelope.
package api

import (
	"fmt"
	"net/http"
)

///////////////////////////////////////////////////////////////////////////////
// Error taxonomy
///////////////////////////////////////////////////////////////////////////////

// Error is a failure that maps directly onto an HTTP response. Everything
// the toolkit reports to a client is one of these; any other error reaching
// the decoration layer is converted to InternalServerError so raw failure
// text never leaks onto the wire.
//
// Each taxonomy constructor carries a fixed default message. Override it per
// instance with WithMessage.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Is matches errors by status code only, so overridden messages still
// compare equal to their taxonomy entry through errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

// WithMessage returns a copy of e carrying msg instead of the default
// message. The receiver is left untouched.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Status: e.Status, Message: msg}
}

// BadRequest reports a request whose payload could not be validated.
func BadRequest() *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Bad request."}
}

// NotAuthenticated reports a request with no usable identity.
func NotAuthenticated() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "Unauthorized operation. Maybe forgot the authentication step ?"}
}

// PermissionDenied reports a request rejected by a permission predicate.
func PermissionDenied() *Error {
	return &Error{Status: http.StatusForbidden, Message: "Forbidden operation. Make sure you have the right permissions."}
}

// NotFound reports a missing resource.
func NotFound() *Error {
	return &Error{Status: http.StatusNotFound, Message: "The requested resource is not found."}
}

// MethodNotAllowed reports a verb outside the view's allow-set.
func MethodNotAllowed() *Error {
	return &Error{Status: http.StatusMethodNotAllowed, Message: "HTTP Method not allowed."}
}

// UnsupportedMediaType reports a payload in a content type the view does not
// accept.
func UnsupportedMediaType() *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Message: "Unsupported Media Type. Check your request's Content-Type."}
}

// InternalServerError is the catch-all failure. Its message deliberately
// says nothing about the cause.
func InternalServerError() *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "An unknown server error occured."}
}

// ServiceUnavailable reports a dependency outage.
func ServiceUnavailable() *Error {
	return &Error{Status: http.StatusServiceUnavailable, Message: "The requested service is unavailable."}
}
