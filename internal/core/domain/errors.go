package domain

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("validation failed")

var ErrUserNotFound = errors.New("user not found")
var ErrAllergyNotFound = errors.New("allergy not found")
var ErrAssignmentNotFound = errors.New("allergy not assigned to user")

var ErrAllergyAlreadyAssigned = errors.New("allergy already assigned to user")
var ErrEmailTaken = errors.New("email already in use")

// ValidationError reports a missing or malformed input field.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand for &ValidationError{...}.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
