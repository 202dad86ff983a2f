package auth

import (
	"time"

	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/jrsteele09/farm-admin/users"
)

// TokenResponse is the token pair issued by a successful OTP verification or password login.
type TokenResponse struct {
	// AccessToken is the JWT sent on every API call.
	// Usage: Authorization header, "Bearer <access_token>"
	// Note: the console never inspects it to decide validity, the API's 401 is authoritative
	AccessToken string `json:"access_token"`

	// RefreshToken is kept with the session but not exchanged by the console.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	// Example: 1800
	// Note: informational only, there is no local expiry tracking
	ExpiresIn int `json:"expires_in"`

	// RefreshExpiresIn is the refresh token lifetime in seconds.
	RefreshExpiresIn int `json:"refresh_expires_in"`
}

// Tokens is the pair persisted in the session.
func (t TokenResponse) Tokens() sessions.Tokens {
	return sessions.Tokens{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

// Expiry is the access token expiry relative to now, or zero when the API did not say.
func (t TokenResponse) Expiry(now time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// AuthResponse is returned by /auth/verify-otp and /auth/login.
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  users.User    `json:"user"`
}
