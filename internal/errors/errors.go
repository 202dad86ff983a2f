package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the gateway, resource clients and the console.
var (
	// Raised before any request is dispatched
	ErrValidation = errors.New("validation failed")

	// Authorization errors
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrSessionAbsent = errors.New("no active session")

	// Resource errors reported by the API
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBusinessRule = errors.New("request rejected")

	// Transport errors
	ErrNetwork = errors.New("network unavailable")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}

// Unwrap is errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
