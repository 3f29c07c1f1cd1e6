// Package dErrors provides coded domain errors. Services attach a Code to
// every failure they return so transport layers can map errors to responses
// without string matching, and callers can branch with HasCode.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are part of the engine's contract:
// a rejected request always carries exactly one of these.
type Code string

const (
	// Generic codes.
	CodeValidation         Code = "validation"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"

	// Lifecycle-specific codes. These are permanent business-rule failures:
	// the engine never retries them, the caller must fix the input.
	CodeIllegalTransition      Code = "illegal_transition"
	CodeMissingReason          Code = "missing_reason"
	CodeDuplicateApplication   Code = "duplicate_active_application"
	CodeAdopterSuspended       Code = "adopter_suspended"
	CodeHasActiveApplications  Code = "has_active_applications"
	CodeNotAuthorized          Code = "not_authorized"
)

// Error is a domain error with a classification code.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping the chain intact
// for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.wrapped
		de = nil
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that branch on
// a single code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal if err is
// not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
