// internal/admin/token.go
//
// Portal session tokens: HS256 JWTs signed with the configured session
// key.  Tokens carry the operator email as subject and expire after
// SessionTTL; there is no refresh flow, the operator logs in again.
package admin

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long a login stays valid.
const SessionTTL = 12 * time.Hour

const issuer = "hostadmin"

// ErrInvalidToken is returned for expired, malformed, or foreign tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Sessions issues and verifies portal tokens.
type Sessions struct {
	key []byte
	now func() time.Time
}

// NewSessions builds a Sessions signer around the shared secret.
func NewSessions(key string) *Sessions {
	return &Sessions{key: []byte(key), now: time.Now}
}

// Issue returns a signed token for the operator email.
func (s *Sessions) Issue(email string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, and expiry, returning the operator
// email.
func (s *Sessions) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.key, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
