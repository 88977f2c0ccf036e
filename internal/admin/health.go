package admin

import (
	"context"
	"net/http"
	"time"
)

// HandleHealth returns basic health status
// GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HandleReady checks database connectivity
// GET /ready
// Returns 200 if database is accessible, 503 otherwise
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "error",
			"database": "not configured",
		})
		return
	}

	// Check database connectivity with a lightweight ping
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "error",
			"database": "unavailable",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": "connected",
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
