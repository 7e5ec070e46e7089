// Package auth mints and validates session credentials.
//
// A session is addressed by a public id and proven by a second secret, the auth
// token. Both are 256-bit values from crypto/rand, so neither can be guessed or
// enumerated, and a leaked id alone grants nothing.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"randomchat/backend/internal/config"
)

// TokenSource looks up the stored auth token of a session.
type TokenSource interface {
	AuthToken(id string) (string, bool)
}

// Authenticator issues and checks (id, auth token) pairs.
type Authenticator struct {
	tokens TokenSource
}

// NewAuthenticator builds an Authenticator over the given token source.
func NewAuthenticator(tokens TokenSource) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Mint returns a fresh, unguessable session id and auth token.
func (a *Authenticator) Mint() (id, token string, err error) {
	if id, err = randomString(config.SessionIDBytes); err != nil {
		return "", "", fmt.Errorf("mint session id: %w", err)
	}
	if token, err = randomString(config.AuthTokenBytes); err != nil {
		return "", "", fmt.Errorf("mint auth token: %w", err)
	}
	return id, token, nil
}

// Validate reports whether token is the auth token of session id.
// Unknown ids and wrong tokens are indistinguishable to the caller.
func (a *Authenticator) Validate(id, token string) bool {
	if id == "" || token == "" {
		return false
	}
	stored, ok := a.tokens.AuthToken(id)
	if !ok {
		// Unknown ids still pay for a comparison.
		stored = token + "x"
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1 && ok
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
