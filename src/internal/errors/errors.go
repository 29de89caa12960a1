// Package errors provides domain-specific error types for the fw-ipsets application.
//
// This package defines structured errors with error codes, making it easier to handle
// and test different error conditions consistently across the application.
package errors

import "fmt"

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeParse indicates a malformed item (source line or kernel listing element).
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeSourceRead indicates that a set source file could not be read.
	ErrCodeSourceRead ErrorCode = "SOURCE_READ_ERROR"

	// ErrCodeBackendCommand indicates that an external tool (ipset, nft) could not be
	// launched or exited with a non-zero status.
	ErrCodeBackendCommand ErrorCode = "BACKEND_COMMAND_ERROR"

	// ErrCodeBackendParse indicates that an external tool returned output without
	// the expected structure.
	ErrCodeBackendParse ErrorCode = "BACKEND_PARSE_ERROR"

	// ErrCodeReconcile wraps any failure of a single set definition with its name and backend.
	ErrCodeReconcile ErrorCode = "RECONCILE_ERROR"

	// ErrCodeConfig indicates a configuration-related error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeValidation indicates a validation error.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err or any error in its chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				if HasCode(inner, code) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		default:
			return false
		}
	}
	return false
}

// ParseError describes a malformed source line.
type ParseError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: cannot parse %q: %v", e.File, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new item parse error for the given source location.
func NewParseError(file string, line int, text string, cause error) *Error {
	return Wrap(ErrCodeParse, "malformed item", &ParseError{
		File: file,
		Line: line,
		Text: text,
		Err:  cause,
	})
}

// NewSourceReadError creates a new source file read error.
func NewSourceReadError(path string, cause error) *Error {
	return Wrap(ErrCodeSourceRead, fmt.Sprintf("failed to read source %s", path), cause)
}

// NewBackendCommandError creates a new external tool invocation error.
func NewBackendCommandError(message string, cause error) *Error {
	return Wrap(ErrCodeBackendCommand, message, cause)
}

// NewBackendParseError creates a new external tool output error.
func NewBackendParseError(message string, cause error) *Error {
	return Wrap(ErrCodeBackendParse, message, cause)
}

// NewReconcileError wraps a failure of one set definition with its identity.
func NewReconcileError(name string, backend string, cause error) *Error {
	return Wrap(ErrCodeReconcile, fmt.Sprintf("set %q (backend %s)", name, backend), cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, cause error) *Error {
	return Wrap(ErrCodeValidation, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}
