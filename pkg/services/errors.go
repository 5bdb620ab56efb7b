package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session does not exist or is soft-deleted.
	ErrNotFound = errors.New("session not found")

	// ErrNotCancellable is returned when a cancel request hits a session that
	// is already terminal, or in flight on a pod this instance cannot reach.
	ErrNotCancellable = errors.New("session is not in a cancellable state")
)

// ValidationError wraps field-specific validation errors.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
