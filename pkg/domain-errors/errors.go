// Package domainerrors provides coded errors for business-rule violations.
// Services translate store sentinels and rule failures into these; the HTTP
// layer maps each code to a stable response shape. The code set is closed:
// callers switch on Code, never on error text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a business-rule failure.
type Code string

const (
	// CodeBadRequest covers validation failures and unexpected save failures
	// with no more specific classification.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized means the caller identity is missing or unusable.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is identified but lacks permission for
	// this specific resource or action.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the primary target does not exist, or does not exist
	// under the given parent.
	CodeNotFound Code = "not_found"
	// CodeRefNotFound means the primary target exists but a referenced entity
	// in another collection does not.
	CodeRefNotFound Code = "reference_not_found"
	// CodeConflict means a uniqueness or referential-integrity rule would be
	// violated.
	CodeConflict Code = "conflict"
	// CodeInternal covers persistence failures after all business checks
	// passed, and anything else truly unexpected.
	CodeInternal Code = "internal_error"
)

// Error carries a code plus a human-readable message. It may wrap an
// underlying cause for logging; the cause is never exposed to callers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error around an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so unexpected failures never leak as something more benign.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, empty for uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
