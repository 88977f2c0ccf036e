package auth

import (
	"context"

	"github.com/sipico/catalog-backend/internal/token"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const (
	// Context keys for authentication data.
	tokenKey ctxKey = iota // stores token.Token
)

// TokenFromContext retrieves the verified admin token from context.
// The second return value is false if the request did not pass the Gate.
func TokenFromContext(ctx context.Context) (token.Token, bool) {
	if v := ctx.Value(tokenKey); v != nil {
		if tok, ok := v.(token.Token); ok {
			return tok, true
		}
	}
	return token.Token{}, false
}

// WithToken adds a verified token to the context.
func WithToken(ctx context.Context, tok token.Token) context.Context {
	return context.WithValue(ctx, tokenKey, tok)
}
