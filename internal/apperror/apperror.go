package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrUpstream   = errors.New("upstream error")
	ErrNoPending  = errors.New("no pending report")
)

type AppError struct {
	Err     error  // sentinel this error wraps
	Message string // human-readable error message
	Field   string // optional: form field causing the error
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

// Upstream wraps a failure from the issue tracker or OAuth provider.
// The workflow never retries these; the handler decides how they surface.
func Upstream(message string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}

// NoPending is returned when the resume route is reached with nothing
// stashed in the session (direct navigation, expired session). The workflow
// fails closed rather than filing a report with absent data.
func NoPending() *AppError {
	return &AppError{
		Err:     ErrNoPending,
		Message: "no report is waiting to be filed",
	}
}
