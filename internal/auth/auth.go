// Package auth checks the admin password and guards privileged handlers with
// signed admin tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sipico/catalog-backend/internal/token"
)

// Errors for authentication failures.
var (
	// ErrUnauthorized indicates a wrong password or an invalid admin token.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrServerMisconfigured indicates no admin password is configured.
	ErrServerMisconfigured = errors.New("auth: server not configured")
)

// Authenticator exchanges the shared admin password for an admin token.
type Authenticator struct {
	password     string
	passwordHash []byte
	codec        *token.Codec
}

// NewAuthenticator creates an Authenticator. When passwordHash (a bcrypt hash)
// is set it is used instead of the plain password.
func NewAuthenticator(password, passwordHash string, codec *token.Codec) *Authenticator {
	a := &Authenticator{password: password, codec: codec}
	if passwordHash != "" {
		a.passwordHash = []byte(passwordHash)
	}
	return a
}

// Configured reports whether an admin password is set.
func (a *Authenticator) Configured() bool {
	return a.password != "" || len(a.passwordHash) > 0
}

// Authenticate checks submitted against the configured password and issues a
// token on match. It returns ErrServerMisconfigured when no password is
// configured, and ErrUnauthorized on mismatch.
func (a *Authenticator) Authenticate(submitted string) (token.Token, error) {
	if !a.Configured() {
		return token.Token{}, ErrServerMisconfigured
	}

	if len(a.passwordHash) > 0 {
		err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(submitted))
		switch {
		case err == nil:
			return a.codec.Issue(), nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return token.Token{}, ErrUnauthorized
		default:
			return token.Token{}, fmt.Errorf("%w: invalid password hash: %v", ErrServerMisconfigured, err)
		}
	}

	if subtle.ConstantTimeCompare([]byte(submitted), []byte(a.password)) != 1 {
		return token.Token{}, ErrUnauthorized
	}
	return a.codec.Issue(), nil
}

// Codec returns the token codec used to issue tokens.
func (a *Authenticator) Codec() *token.Codec {
	return a.codec
}
