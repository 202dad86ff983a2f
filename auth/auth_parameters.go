package auth

import "github.com/jrsteele09/farm-admin/users"

type SendOTPRequest struct {
	PhoneNumber string            `json:"phone_number"`
	Role        users.RoleType    `json:"role,omitempty"`
	EntityType  *users.EntityType `json:"entity_type,omitempty"`
}

// DebugInfo is only present when the API runs with a development SMS provider.
type DebugInfo struct {
	OTP string `json:"otp,omitempty"`
}

type SendOTPResponse struct {
	Message string     `json:"message"`
	Debug   *DebugInfo `json:"debug,omitempty"`
}

// DebugOTP returns the echoed code, or "" when the API did not send one.
func (r SendOTPResponse) DebugOTP() string {
	if r.Debug == nil {
		return ""
	}
	return r.Debug.OTP
}

type VerifyOTPRequest struct {
	PhoneNumber  string            `json:"phone_number"`
	Code         string            `json:"code"`
	Role         users.RoleType    `json:"role,omitempty"`
	EntityType   *users.EntityType `json:"entity_type,omitempty"`
	TaxID        *string           `json:"tax_id,omitempty"`
	LegalName    *string           `json:"legal_name,omitempty"`
	LegalAddress *string           `json:"legal_address,omitempty"`
	BankAccount  *string           `json:"bank_account,omitempty"`
	Email        *string           `json:"email,omitempty"`
}

type PasswordLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
