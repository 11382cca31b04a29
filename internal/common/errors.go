// Package common defines shared constants and sentinel errors used across
// Luminary server layers. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Caller errors.
	ErrorValidation   = errors.New("validation error")
	ErrorConflict     = errors.New("conflict")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid, malformed, forged or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Infrastructure errors, never the caller's fault.
	ErrorStoreUnavailable = errors.New("store unavailable")
	ErrorInternalHash     = errors.New("internal hash error")
	ErrorInternal         = errors.New("internal error")
)

// ConflictError reports a uniqueness violation on a single field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " in use"
}

// Is makes errors.Is(err, ErrorConflict) hold for every ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrorConflict
}

// NewConflict returns a ConflictError for field.
func NewConflict(field string) error {
	return &ConflictError{Field: field}
}

// AuthReason tells why a credential check failed. It is meant for logs only;
// clients get the same generic answer for every reason.
type AuthReason string

const (
	ReasonNotFound        AuthReason = "user not found"
	ReasonInvalidPassword AuthReason = "invalid password"
	ReasonInactive        AuthReason = "account inactive"
)

// AuthError is returned by credential checks.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	return string(e.Reason)
}

// Is makes errors.Is(err, ErrorUnauthorized) hold for every AuthError.
func (e *AuthError) Is(target error) bool {
	return target == ErrorUnauthorized
}

// NewAuthError returns an AuthError with the given reason.
func NewAuthError(reason AuthReason) error {
	return &AuthError{Reason: reason}
}

// Validationf wraps ErrorValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorValidation, fmt.Sprintf(format, args...))
}
