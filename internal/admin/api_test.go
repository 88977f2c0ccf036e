package admin

import (
	"log/slog"
	"net/http"
	"testing"
)

func TestHandleSetLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantLevel  slog.Level
	}{
		{"debug", map[string]string{"level": "debug"}, http.StatusOK, slog.LevelDebug},
		{"warn", map[string]string{"level": "warn"}, http.StatusOK, slog.LevelWarn},
		{"error", map[string]string{"level": "error"}, http.StatusOK, slog.LevelError},
		{"unknown level", map[string]string{"level": "verbose"}, http.StatusBadRequest, slog.LevelInfo},
		{"invalid json", "{", http.StatusBadRequest, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := newTestHandler(t)

			w := doRequest(t, h, "POST", "/api/admin/loglevel", tt.body, true)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if got := h.logLevel.Level(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
		})
	}
}
