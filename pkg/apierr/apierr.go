// Package apierr defines the error taxonomy shared by the completion pipeline
// and the HTTP layer. Every failure that reaches a caller is classified into a
// Kind, which in turn determines the HTTP status of the JSON error envelope.
package apierr

import (
	"errors"
	"net/http"
)

// Kind classifies an error by who can correct it.
type Kind int

const (
	// KindInternal covers contract-call, signing, storage and other server-side failures.
	KindInternal Kind = iota
	// KindBadRequest is a caller-correctable condition (invalid model, N out of
	// range, malformed payloads, insufficient funds, failed fetches).
	KindBadRequest
	// KindUnauthorized means the caller could not be authenticated.
	KindUnauthorized
	// KindForbidden means the caller is authenticated but not entitled.
	KindForbidden
	// KindNotFound means a referenced organization, project or model is absent.
	KindNotFound
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a caller-visible message. The wrapped Err
// is kept for logs and errors.Is/As and is never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest returns a KindBadRequest error.
func BadRequest(msg string) *Error { return &Error{Kind: KindBadRequest, Message: msg} }

// BadRequestf wraps err as a KindBadRequest error.
func BadRequestf(msg string, err error) *Error {
	return &Error{Kind: KindBadRequest, Message: msg, Err: err}
}

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden returns a KindForbidden error.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Internal wraps err as a KindInternal error.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the Kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-visible message of err. Unclassified errors get a
// generic message so that internal details never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
