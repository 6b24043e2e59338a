package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/qwanyx/qwanyx/internal/auth/store"
)

// Error taxonomy. Every error returned by this package matches exactly one
// of these with errors.Is.
var (
	ErrValidation           = errors.New("validation_error")
	ErrNotFound             = errors.New("not_found")
	ErrInvalidOrExpiredCode = errors.New("invalid_or_expired_code")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrInternal             = errors.New("internal_error")

	// Refinements of ErrNotFound.
	ErrWorkspaceNotFound = fmt.Errorf("workspace %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)

	// ErrUserInactive refines ErrForbidden for deactivated accounts.
	ErrUserInactive = fmt.Errorf("user is inactive: %w", ErrForbidden)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// internal wraps a persistence or transport failure. The cause stays in the
// chain for logging.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// userErr maps store errors for user lookups.
func userErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: email already registered", ErrConflict)
	default:
		return internal(op, err)
	}
}

// NormalizeEmail trims and lower-cases email and checks that it is a bare
// address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationf("email %q is not a valid address", email)
	}
	return email, nil
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
