package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sipico/catalog-backend/internal/auth"
	"github.com/sipico/catalog-backend/internal/metrics"
)

// LoginRequest is the request body for POST /api/admin-auth
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries a freshly issued admin token.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Login error messages.
const (
	MsgPasswordRequired    = "Password is required"
	MsgServerNotConfigured = "Server not configured"
	MsgWrongPassword       = "密码错误"
)

// HandleLogin exchanges the admin password for a signed token
// POST /api/admin-auth
// Body: {"password": "..."}
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	// A malformed body is treated like a missing password.
	_ = json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, MsgPasswordRequired)
		return
	}

	tok, err := h.auth.Authenticate(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			metrics.RecordAuthFailure("wrong_password")
			h.logger.Warn("admin login failed", "remote_addr", r.RemoteAddr)
			WriteError(w, http.StatusUnauthorized, MsgWrongPassword)
		case errors.Is(err, auth.ErrServerMisconfigured):
			h.logger.Error("admin login rejected: no usable admin password configured", "error", err)
			WriteError(w, http.StatusInternalServerError, MsgServerNotConfigured)
		default:
			h.logger.Error("admin login failed", "error", err)
			WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
		}
		return
	}

	h.logger.Info("admin token issued", "remote_addr", r.RemoteAddr, "expires_at", tok.ExpiresAt)
	WriteJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     tok.Format(),
		ExpiresAt: tok.ExpiresAt,
	})
}
