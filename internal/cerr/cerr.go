// Package cerr defines the coded errors shared by the HTTP handlers and
// the realtime relay. Codes cross the wire; causes stay server-side.
package cerr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalid         Code = "INVALID"
	CodeNotFound        Code = "NOT_FOUND"
	CodeDuplicate       Code = "DUPLICATE"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodePersistence     Code = "PERSISTENCE"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Invalid(msg string) *Error {
	return New(CodeInvalid, msg)
}

func NotFound(msg string) *Error {
	return New(CodeNotFound, msg)
}

func Duplicate(msg string) *Error {
	return New(CodeDuplicate, msg)
}

func Unauthenticated(msg string) *Error {
	return New(CodeUnauthenticated, msg)
}

func Unauthorized(msg string) *Error {
	return New(CodeUnauthorized, msg)
}

func Persistence(msg string, cause error) *Error {
	return Wrap(CodePersistence, msg, cause)
}

// CodeOf extracts the code from an error chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
