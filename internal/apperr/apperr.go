// Package apperr classifies errors so the HTTP layer can map them to a
// status code in one place.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindDependency Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindForbidden
)

// Error is a classified error. Message is safe to show to clients; Err holds
// the underlying cause, if any.
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

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Auth(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Dependency(msg string, err error) error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Unclassified
// errors are treated as dependency failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindDependency {
		return e.Message
	}
	return "Server Error"
}

// StatusOf maps err to an HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
