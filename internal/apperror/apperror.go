// Package apperror defines the error taxonomy shared by the stores and the
// HTTP layer. Errors cross the store boundary as values, never as panics, so
// handlers can map them to a status code and render an inline message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller-fixable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks attempts to create something that already exists.
	ErrConflict = errors.New("conflict")
	// ErrAuth marks failed authentication. Deliberately low-information.
	ErrAuth = errors.New("authentication failed")
	// ErrStorage marks a failure of the backing store itself.
	ErrStorage = errors.New("storage failure")
)

// AppError carries the sentinel plus a message safe to show the user.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // user-facing message
	Field   string // optional: input field at fault
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation builds a validation error tied to an input field.
func Validation(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Conflict builds a duplicate-resource error.
func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// Auth builds a credentials error. The message must not reveal whether the
// email or the password was wrong.
func Auth(message string) *AppError {
	return &AppError{Err: ErrAuth, Message: message}
}

// Storage wraps a backend failure. cause may be nil.
func Storage(cause error, message string) *AppError {
	if cause == nil {
		cause = ErrStorage
	}
	return &AppError{Err: fmt.Errorf("%w: %v", ErrStorage, cause), Message: message}
}
