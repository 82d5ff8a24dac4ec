package errors

import (
	"fmt"
)

// Error is the structured error type for codescope.
// It carries a stable code so callers can map failures to boundary
// behavior (HTTP status, retry, degrade) without string matching.
type Error struct {
	// Code is the unique error code (e.g., "ERR_203_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Storage, etc.).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// ScanIO creates an error for a single unreadable file during a scan.
// These are recovered locally: skip the file, log, continue the walk.
func ScanIO(path string, cause error) *Error {
	return New(ErrCodeScanIO, fmt.Sprintf("cannot read %s", path), cause).WithDetail("path", path)
}

// Decode creates an error for content that is not valid text.
func Decode(path string) *Error {
	return New(ErrCodeDecode, fmt.Sprintf("%s is not valid text", path), nil).WithDetail("path", path)
}

// NotFound creates an error for a missing file or export artifact.
func NotFound(path string) *Error {
	return New(ErrCodeFileNotFound, fmt.Sprintf("%s not found", path), nil).WithDetail("path", path)
}

// Persistence creates an error for a history store failure.
// The live snapshot cache stays authoritative; callers log and continue.
func Persistence(message string, cause error) *Error {
	return New(ErrCodePersistence, message, cause)
}

// InvalidQuery creates an error for a rejected search query.
func InvalidQuery(message string) *Error {
	return New(ErrCodeInvalidQuery, message, nil)
}

// Internal creates an internal error.
func Internal(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// GetCode extracts the error code from an Error anywhere in the chain.
// Returns empty string if no Error is found.
func GetCode(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}
