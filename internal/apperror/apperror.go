// Package apperror defines the application's error taxonomy.
//
// Services return these instead of HTTP status codes; the handler layer
// translates them at the boundary (see handler.writeError). The sentinels
// are the machine-checkable kinds, AppError carries the human-readable
// message, and errors.Is/errors.As walk the chain between them.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("store error")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports an absent entity. It is also returned for entities that
// exist but belong to another user: revealing the difference would leak
// which IDs exist, so the two are indistinguishable at the boundary.
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

// Unauthorized reports a missing or invalid session. HTTP handlers map
// this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Store wraps a persistence-layer failure. The wrapped cause is kept for
// logs; the boundary only ever surfaces the generic message, never storage
// internals.
func Store(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrStore, cause),
		Message: "storage failure",
	}
}
