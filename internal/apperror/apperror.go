// Package apperror defines the application's error taxonomy.
//
// Every business-rule failure in the service layer is one of a small set
// of sentinel errors wrapped in an AppError carrying a human-readable
// message. Handlers map the sentinels to HTTP status codes; services and
// repositories never import net/http.
//
// The taxonomy:
//
//	ErrValidation    → bad input shape (400)
//	ErrNotFound      → missing artwork/palette/user (404)
//	ErrForbidden     → caller lacks permission (403)
//	ErrUnauthorized  → failed credential check (401)
//	ErrConflict      → business-rule violation: already listed/claimed,
//	                   self-purchase, insufficient funds (409)
//	ErrConfiguration → server-side catalog misconfiguration (500)
//
// Conflict vs validation: a non-positive listing price is a validation
// error (the request itself is malformed); an insufficient balance is a
// conflict (the request is well-formed but the current state refuses it).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConfiguration = errors.New("configuration error")
)

// AppError wraps one of the sentinel errors with a message safe to show
// to API clients. Unwrap makes errors.Is(err, ErrXxx) work through any
// further %w wrapping the service layer adds.
type AppError struct {
	Err     error  // sentinel (ErrNotFound, ErrConflict, ...)
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
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

// Conflict returns an AppError for a state-based refusal. The message is
// caller-supplied because conflicts are the most varied kind ("cannot buy
// your own artwork", "already claimed today", ...).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for a failed credential check. The
// message is deliberately vague — never reveal whether the email or the
// password was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Configuration returns an AppError for a server-side misconfiguration
// detected at request time, e.g. the block catalog missing a required
// rarity tier. Not the client's fault — maps to 500.
func Configuration(message string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: message,
	}
}
