package catalogue

import (
	"errors"
	"fmt"
)

// Validation errors for catalogue entities.
var (
	// ErrTimestampInFuture is returned when an entity timestamp is not in the past.
	ErrTimestampInFuture = errors.New("timestamp must be in the past")

	// ErrInvalidClassification is returned for an unknown security classification.
	ErrInvalidClassification = errors.New("invalid security classification")

	// ErrUnknownEntityType is returned when looking up an unregistered kind.
	ErrUnknownEntityType = errors.New("unknown entity type")
)

// ValidationError reports which field of an entity failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
