// httperr/httperr.go
//
// Structured HTTP errors.
//
// Context
// -------
// Endpoint handlers return an *Error when they want a specific status line
// and message on the wire.  The dispatcher recognises it with errors.As, so
// wrapping with fmt.Errorf("...: %w", err) keeps it structured.  Anything
// else a handler returns is an internal error and becomes a 500.
//
// Every error, structured or not, is rendered as the same envelope:
//
//	{"status": 405, "message": "method not allowed"}
package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an explicit HTTP status and a user-facing message.
type Error struct {
	Status  int
	Message string
}

// Body is the JSON envelope written for every error response.
type Body struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// New returns a structured error.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Newf formats the message.
func Newf(status int, format string, args ...any) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

// Error implements the error interface.  The form mirrors what gets logged.
func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

// Body converts the error into its wire envelope.
func (e *Error) Body() Body {
	return Body{Status: e.Status, Message: e.Message}
}

// MethodNotAllowed is returned by every verb an endpoint does not override.
func MethodNotAllowed() *Error {
	return New(http.StatusMethodNotAllowed, "method not allowed")
}

// NotFound is used for routing misses.
func NotFound() *Error {
	return New(http.StatusNotFound, "not found")
}

// BadRequest is the status used by the request parsers.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// As reports whether err (or anything it wraps) is a structured *Error.
func As(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
