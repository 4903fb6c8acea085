package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// Access Tokens
// =============================================================================

var (
	ErrInvalidToken = errors.New("token is invalid or expired")
	ErrEmptySecret  = errors.New("signing secret is empty")
)

// TokenIssuer mints and verifies the HMAC-signed access tokens handed out by
// the sign-in endpoint. The subject claim carries the user's login.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer. ttl bounds the lifetime of every
// minted token.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Mint creates a signed token for the given login.
func (t *TokenIssuer) Mint(login string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   login,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and returns the login it was minted for.
// Expired, malformed or foreign-signed tokens all yield ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
