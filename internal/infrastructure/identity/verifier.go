// Package identity adapts the external identity provider. The provider
// issues HS256-signed session tokens; this package verifies them against the
// shared secret and extracts the opaque caller identity. Nothing else about
// the provider (sessions, user profiles, sign-in UI) is this service's
// concern.
package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// Verifier validates provider-issued session tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns the caller identity (the token's subject) or ErrInvalidToken.
func (v *Verifier) Verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}
