package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
)

// Form fields errors are reported against.
const (
	FieldPhone    = "phone"
	FieldCode     = "code"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldForm     = "form"
)

var (
	InvalidPhoneErr    = fmt.Errorf("enter a valid phone number: %w", apperrors.ErrValidation)
	MissingCodeErr     = fmt.Errorf("enter the code: %w", apperrors.ErrValidation)
	InvalidCodeErr     = fmt.Errorf("invalid code: %w", apperrors.ErrValidation)
	MissingUsernameErr = fmt.Errorf("enter the username: %w", apperrors.ErrValidation)
	MissingPasswordErr = fmt.Errorf("enter the password: %w", apperrors.ErrValidation)
	WrongStepErr       = errors.New("login step not available")
	LoginBusyErr       = errors.New("a login request is already in progress")
)

// FieldError ties an error to the form field it should be shown against.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
