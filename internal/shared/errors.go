package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the resource does not exist for the caller.
	// Cross-tenant lookups surface this same error so absence and
	// denial are indistinguishable on the wire.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate")
	// ErrUnauthorized indicates a request without a valid identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
