package auth

import (
	"strings"
	"unicode"
)

const (
	minPhoneDigits = 9
	localDigits    = 9
	countryCode    = "998"
	minCodeLength  = 4
	maxCodeLength  = 12
)

// NormalizePhone converts operator input into canonical international form. Formatting
// characters are ignored; a bare nine digit local number gets the default country code.
//
//	"901234567"           -> "+998901234567"
//	"+998 (90) 123-45-67" -> "+998901234567"
//	"12345"               -> InvalidPhoneErr
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) < minPhoneDigits:
		return "", InvalidPhoneErr
	case strings.HasPrefix(digits, countryCode) && len(digits) == len(countryCode)+localDigits:
		return "+" + digits, nil
	case len(digits) == localDigits:
		return "+" + countryCode + digits, nil
	default:
		return "+" + digits, nil
	}
}

// ValidateCode checks a one-time code before it is sent for verification.
func ValidateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", MissingCodeErr
	}
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return "", InvalidCodeErr
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return "", InvalidCodeErr
		}
	}
	return code, nil
}

// ValidateCredentials checks a username and password are present. The API decides whether
// they are correct.
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &FieldError{Field: FieldUsername, Err: MissingUsernameErr}
	}
	if password == "" {
		return &FieldError{Field: FieldPassword, Err: MissingPasswordErr}
	}
	return nil
}
