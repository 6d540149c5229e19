// Package errors provides structured error types for frameup.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI can print a friendly message and the HTTP API can pick
// a status code without string matching.
//
// # Error Codes
//
// Codes follow a small hierarchy:
//   - INVALID_*: input validation failures
//   - NOT_FOUND: missing asset, project or history entry
//   - ASSET_LOAD_FAILED / EXPORT_FAILED: pipeline stage failures
//   - CONFIG_PARSE: malformed settings, usually absorbed with defaults
//   - TIMEOUT: a deadline or transport timeout expired
//   - NETWORK_ERROR / INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "frame %q not found", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // 404
//	}
//
//	err := errors.Wrap(errors.ErrCodeAssetLoad, origErr, "decode %s", ref)
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidMode   Code = "INVALID_MODE"

	// Asset and settings errors
	ErrCodeConfigParse Code = "CONFIG_PARSE"
	ErrCodeAssetLoad   Code = "ASSET_LOAD_FAILED"
	ErrCodeExport      Code = "EXPORT_FAILED"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// IsValidation reports whether c is one of the INVALID_* codes.
func (c Code) IsValidation() bool {
	return strings.HasPrefix(string(c), "INVALID_")
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NetworkCode classifies a transport failure: TIMEOUT for an expired
// deadline or a timed-out connection, NETWORK_ERROR otherwise.
func NetworkCode(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return ErrCodeTimeout
	}
	return ErrCodeNetwork
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
