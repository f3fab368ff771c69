package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrUpstreamUnavailable indicates that the upstream literature database could not be
	// reached, timed out, or answered with a non-success or malformed payload.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrParseFailure indicates that a fetched document set had no recognizable envelope.
	ErrParseFailure = errors.New("parse failure")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Coarse stage failure messages. These are the only error texts allowed to reach callers.
const (
	OpSearchArticles   = "failed to search articles"
	OpFetchArticles    = "failed to fetch article details"
	OpSearchAuthors    = "failed to search authors"
	OpSearchScientists = "failed to search scientists"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// UpstreamError provides details about a failed call to the upstream source.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s upstream error: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Endpoint, e.Message)
}

// Unwrap exposes both ErrUpstreamUnavailable and the transport cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstreamUnavailable}
	}
	return []error{ErrUpstreamUnavailable, e.Cause}
}

// ParseError reports a document set whose envelope could not be recognized.
type ParseError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return "parse error: " + e.Message
}

// Unwrap exposes both ErrParseFailure and the decoder cause.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrParseFailure}
	}
	return []error{ErrParseFailure, e.Cause}
}

// StageError wraps a pipeline stage failure with its coarse, caller-safe message.
type StageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(endpoint string, statusCode int, message string, cause error) *UpstreamError {
	return &UpstreamError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewParseError creates a new ParseError.
func NewParseError(message string, cause error) *ParseError {
	return &ParseError{
		Message: message,
		Cause:   cause,
	}
}

// NewStageError wraps err with a coarse stage message.
func NewStageError(op string, err error) *StageError {
	return &StageError{
		Op:  op,
		Err: err,
	}
}
