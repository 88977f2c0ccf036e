package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sipico/catalog-backend/internal/auth"
	"github.com/sipico/catalog-backend/internal/metrics"
	"github.com/sipico/catalog-backend/internal/token"
)

// VerifyRequest is the request body for POST /api/admin-verify
type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyResponse reports whether a token is currently valid.
type VerifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Verify error messages.
const (
	MsgNoToken            = "No token provided"
	MsgInvalidTokenFormat = "Invalid token format"
	MsgInvalidToken       = "Invalid token"
	MsgTokenExpired       = "Token expired"
)

// HandleVerify checks a token without performing any privileged action
// POST /api/admin-verify
// Body: {"token": "..."}
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	_ = json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
	if req.Token == "" {
		WriteJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Error: MsgNoToken})
		return
	}

	if _, err := h.auth.Codec().Verify(req.Token); err != nil {
		metrics.RecordAuthFailure(auth.FailureReason(err))
		h.logger.Debug("token verification failed", "error", err)
		WriteJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Error: verifyErrorMessage(err)})
		return
	}

	WriteJSON(w, http.StatusOK, VerifyResponse{Valid: true})
}

func verifyErrorMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrInvalidFormat):
		return MsgInvalidTokenFormat
	case errors.Is(err, token.ErrExpired):
		return MsgTokenExpired
	default:
		return MsgInvalidToken
	}
}
