// Package apperr defines the error taxonomy shared by all workflows.
// Handlers translate these into HTTP responses; anything that is not an
// *Error is treated as an internal fault whose detail is logged, not
// surfaced.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a caller-visible application error. Err carries the underlying
// cause for logging and is never serialized in production mode.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Validation is a 400: the caller can fix the request.
func Validation(message string) *Error { return New(http.StatusBadRequest, message) }

// Unauthorized is a 401: missing/invalid/expired/reused/stale token or
// wrong credentials.
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }

// Forbidden is a 403: authenticated but not permitted.
func Forbidden(message string) *Error { return New(http.StatusForbidden, message) }

// NotFound is a 404.
func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

// Conflict is a 409: duplicate username/email or other unique-value clash.
func Conflict(message string) *Error { return New(http.StatusConflict, message) }

// Internal wraps an unexpected fault. The message shown to callers is
// generic; err is kept for the logs.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "something went wrong", Err: err}
}

// From returns err as an *Error, wrapping unanticipated faults as Internal.
// Store-layer errors therefore always surface as one of the taxonomy.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// IsStatus reports whether err maps to the given HTTP status.
func IsStatus(err error, status int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == status
}
