// Package apperror defines the error kinds shared by every layer of the
// collection tracker.
//
// Each constructor returns an *AppError wrapping one sentinel, so callers
// branch with errors.Is(err, apperror.ErrConflict) and read the
// human-readable message with errors.As.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrCorrupted     = errors.New("database corrupted")
	ErrConfigMissing = errors.New("configuration missing")
	ErrInternal      = errors.New("internal error")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field or column causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with id %s", resource, id),
	}
}

// Corrupted reports a stored row that breaks a NOT NULL/non-empty rule.
// It is never recovered from locally.
func Corrupted(column, detail string) *AppError {
	return &AppError{
		Err:     ErrCorrupted,
		Message: fmt.Sprintf("%s %s in database, database is corrupted", column, detail),
		Field:   column,
	}
}

// ConfigMissing reports a required config file or environment variable
// that is absent.
func ConfigMissing(name, message string) *AppError {
	return &AppError{
		Err:     ErrConfigMissing,
		Message: message,
		Field:   name,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}
