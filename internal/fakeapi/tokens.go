package fakeapi

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/farm-admin/users"
)

const (
	accessTokenExpiry = 30 * time.Minute
	tokenIssuer       = "fakeapi"
)

// tokenSigner signs access tokens with a per-server HMAC secret.
type tokenSigner struct {
	secret []byte
}

func newTokenSigner() *tokenSigner {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	return &tokenSigner{secret: secret}
}

func (t *tokenSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// accessToken mints the bearer token handed out on login. The console only ever decodes it
// for display, the server side lookup in tokens decides validity.
func (t *tokenSigner) accessToken(user *users.User) string {
	issuedAt := now()
	claims := jwt.MapClaims{
		"iss":  tokenIssuer,
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  issuedAt.Unix(),
		"exp":  issuedAt.Add(accessTokenExpiry).Unix(),
		"jti":  uuid.NewString(),
	}
	signed, err := t.Sign(claims)
	if err != nil {
		panic(err)
	}
	return signed
}
