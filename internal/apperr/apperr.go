// Package apperr carries the typed failures returned to callers of the
// callable endpoints.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	InvalidArgument    Code = "invalid-argument"
	FailedPrecondition Code = "failed-precondition"
	Unauthenticated    Code = "unauthenticated"
	NotFound           Code = "not-found"
	Unknown            Code = "unknown"
	Internal           Code = "internal"
)

// Status is the wire form of the code in a callable error body.
func (c Code) Status() string {
	switch c {
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case FailedPrecondition:
		return "FAILED_PRECONDITION"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case NotFound:
		return "NOT_FOUND"
	case Unknown:
		return "UNKNOWN"
	default:
		return "INTERNAL"
	}
}

func (c Code) HTTPStatus() int {
	switch c {
	case InvalidArgument, FailedPrecondition:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// From returns the typed failure carried by err. Anything untyped becomes
// an internal error so details never leak to the caller.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: Internal, Message: "internal error", Err: err}
}

// CodeOf is a shortcut for From(err).Code; nil errors have no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}
