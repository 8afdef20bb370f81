package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownEmail       = errors.New("no account with that email")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrDuplicateEmail     = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrStorage            = errors.New("storage failure")
	ErrNotification       = errors.New("notification failure")
)

// FieldError is a validation failure on one form field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func (e *FieldError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error { return &FieldError{Field: field, Reason: reason} }
