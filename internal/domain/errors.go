package domain

import (
	"errors"
	"strings"
)

// ErrNoBrandedItems is returned when a mandatory category has no candidates
var ErrNoBrandedItems = errors.New("no branded items available")

// ValidationError represents a malformed or out-of-range request.
// The message is surfaced to callers verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for a request field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CompositionError is returned when no valid outfit could be composed
type CompositionError struct {
	Message string
	Reasons []string
}

func (e *CompositionError) Error() string {
	if len(e.Reasons) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Reasons, ", ")
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
