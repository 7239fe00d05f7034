package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that a tool argument is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates that the upstream API could not be reached.
	ErrServiceUnavailable = errors.New("service unavailable")
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

// ExternalAPIError provides details about an external API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
