package auth

import (
	"errors"
	"fmt"
	"randomchat/backend/internal/config"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned for malformed, forged or expired credentials.
var ErrInvalidCredential = errors.New("invalid credential")

// CredentialClaims carries a session id and auth token inside a signed JWT so
// browsers can hand both to the websocket endpoint as one opaque string.
type CredentialClaims struct {
	SessionID string `json:"sid"`
	AuthToken string `json:"tok"`
	jwt.RegisteredClaims
}

// Signer issues and parses HS256 credentials.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer with the server secret.
func NewSigner(secret string, ttl time.Duration, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a credential for the session.
func (s *Signer) Issue(id, token string) (string, error) {
	now := s.now()
	claims := CredentialClaims{
		SessionID: id,
		AuthToken: token,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.CredentialIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Parse verifies a credential and returns the session id and auth token inside.
func (s *Signer) Parse(raw string) (id, token string, err error) {
	claims := &CredentialClaims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.CredentialIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.SessionID == "" || claims.AuthToken == "" {
		return "", "", ErrInvalidCredential
	}
	return claims.SessionID, claims.AuthToken, nil
}
