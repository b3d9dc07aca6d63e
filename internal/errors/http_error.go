package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a request failure. Every rejection the services produce is
// one of these kinds so handlers can map it to a status code uniformly.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidState
)

// HTTPError represents an error with a stable kind and an associated HTTP
// status code.
type HTTPError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(kind Kind, code int, message string) *HTTPError {
	return &HTTPError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Helpers for the common kinds.
func Validation(msg string) *HTTPError {
	return NewHTTPError(KindValidation, http.StatusBadRequest, msg)
}

func NotFound(msg string) *HTTPError {
	return NewHTTPError(KindNotFound, http.StatusNotFound, msg)
}

func Conflict(msg string) *HTTPError {
	return NewHTTPError(KindConflict, http.StatusConflict, msg)
}

func Forbidden(msg string) *HTTPError {
	return NewHTTPError(KindForbidden, http.StatusForbidden, msg)
}

// InvalidState is a 400 like validation failures, but kept as its own kind so
// callers can tell a stale or illegal transition apart from malformed input.
func InvalidState(msg string) *HTTPError {
	return NewHTTPError(KindInvalidState, http.StatusBadRequest, msg)
}

// StatusCode returns the HTTP status for err, or 500 when err is not an
// HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err is an HTTPError of the given kind.
func IsKind(err error, kind Kind) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Kind == kind
}
