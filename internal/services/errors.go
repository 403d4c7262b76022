package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("an idea has already been submitted with this email")
	ErrInvalidOTP   = errors.New("invalid or expired code")
	ErrUnauthorized = errors.New("email verification required")
	ErrStore        = errors.New("store unavailable")
	ErrDelivery     = errors.New("email delivery failed")
)

// ValidationError carries a message that is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}
