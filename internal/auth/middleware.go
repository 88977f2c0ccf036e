package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sipico/catalog-backend/internal/metrics"
	"github.com/sipico/catalog-backend/internal/token"
)

// HeaderName is the request header carrying the admin token.
const HeaderName = "X-Admin-Token"

// UnauthorizedMessage is the error body returned by the Gate.
const UnauthorizedMessage = "未授权"

// Gate returns Chi-compatible middleware that rejects requests without a
// valid admin token before the wrapped handler runs.
func Gate(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractToken(r)
			if raw == "" {
				metrics.RecordAuthFailure("missing_token")
				writeJSONError(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			tok, err := codec.Verify(raw)
			if err != nil {
				metrics.RecordAuthFailure(FailureReason(err))
				writeJSONError(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), tok)))
		})
	}
}

// ExtractToken reads the admin token from X-Admin-Token, falling back to
// "Authorization: Bearer <token>".
func ExtractToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderName)); v != "" {
		return v
	}
	return extractBearerToken(r)
}

// FailureReason maps a token verification error to a metric label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	default:
		return "unknown"
	}
}

// extractBearerToken gets token from "Authorization: Bearer <token>" header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
