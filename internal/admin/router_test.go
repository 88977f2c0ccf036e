package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sipico/catalog-backend/internal/auth"
	"github.com/sipico/catalog-backend/internal/middleware"
)

func TestRouter_GatedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/admin-backup?action=list"},
		{"POST", "/api/admin-backup?action=create"},
		{"GET", "/api/admin-backup?action=download"},
		{"POST", "/api/admin-backup?action=delete"},
		{"POST", "/api/admin-restore"},
		{"POST", "/api/admin/products?action=create"},
		{"POST", "/api/admin/settings"},
		{"POST", "/api/admin/loglevel"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			t.Parallel()
			h, store := newTestHandler(t)

			w := doRequest(t, h, rt.method, rt.path, map[string]any{"label": "x"}, false)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", w.Code)
			}
			if resp := decodeBody(t, w); resp["error"] != auth.UnauthorizedMessage {
				t.Errorf("expected error %q, got %v", auth.UnauthorizedMessage, resp["error"])
			}
			if store.BackupCount() != 0 {
				t.Error("handler ran despite missing token")
			}
		})
	}
}

func TestRouter_RejectsInvalidToken(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/admin-backup?action=create", nil)
	req.Header.Set(auth.HeaderName, "1:2:deadbeef")
	w := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if store.BackupCount() != 0 {
		t.Error("backup created with a forged token")
	}
}

func TestRouter_AcceptsBearerToken(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/admin-backup?action=list", nil)
	req.Header.Set("Authorization", "Bearer "+validToken(t))
	w := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)
	router := h.NewRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/ready", http.StatusOK},
		{"GET", "/nonexistent", http.StatusNotFound},
		{"POST", "/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)
	h.SetLoginLimiter(middleware.NewRateLimiter(2))
	router := h.NewRouter()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/admin-auth", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest {
		t.Errorf("expected first two attempts to reach the handler, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected third attempt to be throttled, got %d", codes[2])
	}
}
