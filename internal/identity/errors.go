package identity

import (
	"errors"
	"fmt"
)

// Code classifies provider failures into the small stable vocabulary the
// rest of the console understands. Anything a provider reports outside this
// set is collapsed to CodeUnknown.
type Code string

const (
	CodeUserNotFound    Code = "user-not-found"
	CodeWrongPassword   Code = "wrong-password"
	CodeInvalidEmail    Code = "invalid-email"
	CodeTooManyRequests Code = "too-many-requests"
	CodeEmailInUse      Code = "email-in-use"
	CodeWeakPassword    Code = "weak-password"
	CodeUnknown         Code = "unknown"
)

// Error is a provider failure carrying its classification code
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("identity: %s", e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified provider error
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the classification code from err, or CodeUnknown when err
// is not a classified provider error (network-level and unexpected failures).
func CodeOf(err error) Code {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return CodeUnknown
}
