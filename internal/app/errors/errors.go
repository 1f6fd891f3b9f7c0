package errors

import (
	stderrors "errors"
	"fmt"
)

// Common error values
var (
	// Configuration errors
	ErrMissingConfig = New("configuration is required")
	ErrInvalidConfig = New("invalid configuration")

	// Transcription lifecycle errors
	ErrJobTimeout    = New("transcription timed out")
	ErrJobFailed     = New("transcription failed")
	ErrJobNotFound   = New("transcription job not found")
	ErrAlreadyActive = New("transcription already in progress")

	// Correlation errors
	ErrNoMatch = New("no matching voicemail record")

	// Store errors
	ErrStoreClosed = New("store is closed")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// TransportError reports a non-2xx HTTP response from either remote service.
// Never retried automatically; a new explicit user action is required.
type TransportError struct {
	Op         string
	HTTPStatus int
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d", e.Op, e.HTTPStatus)
}

// NewTransport creates a TransportError for the given operation and status
func NewTransport(op string, httpStatus int) *TransportError {
	return &TransportError{Op: op, HTTPStatus: httpStatus}
}

// IsTransport reports whether err is (or wraps) a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return stderrors.As(err, &te)
}

// AsTransport extracts a TransportError from err if present
func AsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}
