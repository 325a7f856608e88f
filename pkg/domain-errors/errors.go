// Package domainerrors carries a stable error code alongside a message so that
// callers can branch on the kind of failure without string matching.
//
// Usage:
//
//	err := dErrors.New(dErrors.CodeConflict, "evaluation is already suspended")
//	if dErrors.HasCode(err, dErrors.CodeConflict) { ... }
package domainerrors

import (
	"errors"
)

// Code classifies an error. Codes are stable and safe to expose to callers.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeConflict           Code = "conflict"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a coded error. The optional cause is reachable through errors.Unwrap.
type Error struct {
	Code    Code
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

// New returns a coded error without a cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost coded error in the chain carries code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
