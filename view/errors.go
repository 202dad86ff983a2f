package view

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
)

// FieldErrors maps form fields to the message shown under them.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (f FieldErrors) Unwrap() error {
	return apperrors.ErrValidation
}

// Get returns the message for field, or "" if it is valid.
func (f FieldErrors) Get(field string) string {
	return f[field]
}

func (f FieldErrors) Any() bool {
	return len(f) > 0
}

const (
	msgNetwork   = "Cannot reach the marketplace service. Check your connection and try again."
	msgForbidden = "You do not have permission to do this."
	msgSession   = "Your session has ended. Please sign in again."
	msgInternal  = "Something went wrong on the server. Try again later."
	msgUnknown   = "Something went wrong."
)

// translations rewrites known server details into operator text. Details are matched by
// prefix so messages carrying an id or a name still translate.
var translations = []struct {
	prefix string
	text   string
}{
	{"OTP recently sent", "A code was sent recently. Wait a minute before requesting another."},
	{"Invalid OTP code", "The code is incorrect."},
	{"OTP expired", "The code has expired. Request a new one."},
	{"OTP not found", "Request a code first."},
	{"OTP attempt limit exceeded", "Too many wrong codes. Request a new one."},
	{"Unsupported phone number format", "Enter a valid phone number."},
	{"Incorrect username or password", "Incorrect username or password."},
	{"Role mismatch", "This number is registered for a different role."},
	{"Product not found", "This product no longer exists."},
	{"Order not found", "This order no longer exists."},
	{"Delivery not found", "No delivery has been created for this order yet."},
	{"Cannot delete product with active orders", "This product has active orders and cannot be deleted."},
	{"Can only confirm pending orders", "Only pending orders can be confirmed."},
	{"Cannot cancel delivered or already cancelled orders", "Delivered or cancelled orders cannot be cancelled."},
	{"Insufficient quantity", "Not enough stock for this order."},
	{"Not authorized", msgForbidden},
	{"Only admins can", msgForbidden},
}

// Message turns an error into the text shown to the operator. Server details are translated
// when known and shown as sent otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var fieldErrs FieldErrors
	if apperrors.As(err, &fieldErrs) {
		return "Check the highlighted fields."
	}

	var apiErr *gateway.APIError
	if apperrors.As(err, &apiErr) {
		if text, ok := translate(apiErr.Detail); ok {
			return text
		}
		switch {
		case apperrors.Is(err, apperrors.ErrUnauthorized) && apiErr.Detail == "":
			return msgSession
		case apperrors.Is(err, apperrors.ErrForbidden) && apiErr.Detail == "":
			return msgForbidden
		case apperrors.Is(err, apperrors.ErrInternal) && apiErr.Detail == "":
			return msgInternal
		case apiErr.Detail != "":
			return apiErr.Detail
		}
		return msgUnknown
	}

	switch {
	case apperrors.Is(err, apperrors.ErrNetwork):
		return msgNetwork
	case apperrors.Is(err, apperrors.ErrSessionAbsent):
		return msgSession
	case apperrors.Is(err, apperrors.ErrValidation):
		return validationText(err)
	}
	return msgUnknown
}

// validationText finds the check that failed and returns its message without the sentinel
// suffix or the component prefix.
func validationText(err error) string {
	for next := apperrors.Unwrap(err); next != nil && next != apperrors.ErrValidation; next = apperrors.Unwrap(err) {
		err = next
	}
	text := err.Error()
	text = strings.TrimSuffix(text, ": "+apperrors.ErrValidation.Error())
	if i := strings.LastIndex(text, "] "); i >= 0 {
		text = text[i+2:]
	}
	if text == "" {
		return msgUnknown
	}
	first, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(first)) + text[size:]
}

func translate(detail string) (string, bool) {
	for _, t := range translations {
		if strings.HasPrefix(detail, t.prefix) {
			return t.text, true
		}
	}
	return "", false
}
