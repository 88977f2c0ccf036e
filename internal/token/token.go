// Package token implements the signed, self-contained admin bearer token.
//
// A token is the plaintext triple "<issuedAtMs>:<expiresAtMs>:<signature>" where
// signature is the hex-encoded HMAC-SHA256 of "<issuedAtMs>:<expiresAtMs>" under a
// shared secret. Nothing in the token is encrypted; the timestamps are visible to
// anyone holding it.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the lifetime of an issued token (2,592,000,000 ms).
const DefaultTTL = 30 * 24 * time.Hour

const separator = ":"

// Errors returned by Parse and Verify.
var (
	// ErrInvalidFormat indicates the token is not three separator-delimited segments
	// with numeric timestamps.
	ErrInvalidFormat = errors.New("token: invalid format")
	// ErrBadSignature indicates the signature does not match the timestamps.
	ErrBadSignature = errors.New("token: invalid signature")
	// ErrExpired indicates the token is past its expiry time.
	ErrExpired = errors.New("token: expired")
)

// Token is a parsed admin token. Timestamps are Unix epoch milliseconds.
type Token struct {
	IssuedAt  int64
	ExpiresAt int64
	Signature string
}

// Format renders the token in its wire form.
func (t Token) Format() string {
	return t.payload() + separator + t.Signature
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return t.Format()
}

// ExpiresAtTime returns the expiry as a time.Time.
func (t Token) ExpiresAtTime() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

func (t Token) payload() string {
	return strconv.FormatInt(t.IssuedAt, 10) + separator + strconv.FormatInt(t.ExpiresAt, 10)
}

// Parse splits a wire token into its parts without checking the signature.
func Parse(s string) (Token, error) {
	parts := strings.Split(s, separator)
	if len(parts) != 3 {
		return Token{}, ErrInvalidFormat
	}

	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Token{}, ErrInvalidFormat
	}
	expiresAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Token{}, ErrInvalidFormat
	}
	if parts[2] == "" {
		return Token{}, ErrInvalidFormat
	}

	return Token{IssuedAt: issuedAt, ExpiresAt: expiresAt, Signature: parts[2]}, nil
}

// Issue creates a token valid from now for ttl.
func Issue(secret []byte, now time.Time, ttl time.Duration) Token {
	t := Token{
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.UnixMilli() + ttl.Milliseconds(),
	}
	t.Signature = sign(secret, t.payload())
	return t
}

// Verify parses s and checks its signature and expiry at now.
// A token is valid while now is strictly before its expiry.
func Verify(secret []byte, s string, now time.Time) (Token, error) {
	t, err := Parse(s)
	if err != nil {
		return Token{}, err
	}

	// The signature covers the segments exactly as received.
	parts := strings.SplitN(s, separator, 3)
	expected := sign(secret, parts[0]+separator+parts[1])
	if !hmac.Equal([]byte(expected), []byte(t.Signature)) {
		return Token{}, ErrBadSignature
	}

	if now.UnixMilli() >= t.ExpiresAt {
		return Token{}, ErrExpired
	}

	return t, nil
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload)) //nolint:errcheck // hash.Hash.Write never fails
	return hex.EncodeToString(mac.Sum(nil))
}
