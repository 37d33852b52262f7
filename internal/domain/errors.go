package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("not authorized")
	ErrDuplicateTitle   = errors.New("task already exists")
	ErrNoCompletedTasks = errors.New("no completed tasks found")

	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
)

// ValidationError marks a missing, empty or malformed required field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Missing builds a ValidationError for a required field that was not
// supplied.
func Missing(field string) error {
	return &ValidationError{Msg: field + " is required"}
}

// Invalid builds a ValidationError for a field outside its allowed values.
func Invalid(field string) error {
	return &ValidationError{Msg: "invalid " + field}
}

// StoreError wraps an underlying persistence failure. It is not classified
// further; handlers map it to a 500.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
