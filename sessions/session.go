package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Fixed storage keys. The three values are always written and cleared together.
const (
	AccessTokenKey  = "farm_admin_access_token"
	RefreshTokenKey = "farm_admin_refresh_token"
	RoleKey         = "farm_admin_role"
)

// Tokens is the credential pair issued by the marketplace API on login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionData is the operator session held by the console.
// Presence means a login happened; the API remains the judge of validity.
type SessionData struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

func (s SessionData) values() map[string]string {
	return map[string]string{
		AccessTokenKey:  s.AccessToken,
		RefreshTokenKey: s.RefreshToken,
		RoleKey:         s.Role,
	}
}

func fromValues(values map[string]string) (SessionData, bool) {
	s := SessionData{
		AccessToken:  values[AccessTokenKey],
		RefreshToken: values[RefreshTokenKey],
		Role:         values[RoleKey],
	}
	if s.AccessToken == "" || s.RefreshToken == "" || s.Role == "" {
		return SessionData{}, false
	}
	return s, true
}

// Claims is what the console shows about the signed in operator. It is read from the
// access token without verifying the signature and is never used for access decisions.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func parseClaims(accessToken string) (Claims, bool) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &rc); err != nil {
		return Claims{}, false
	}
	c := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, true
}
