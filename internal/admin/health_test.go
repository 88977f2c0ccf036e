package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sipico/catalog-backend/internal/auth"
)

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", resp["status"])
	}
}

func TestHandleReady(t *testing.T) {
	t.Parallel()

	t.Run("storage connected", func(t *testing.T) {
		t.Parallel()
		h, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		h.HandleReady(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
		if resp := decodeBody(t, w); resp["database"] != "connected" {
			t.Errorf("expected database=connected, got %v", resp["database"])
		}
	})

	t.Run("storage nil", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(nil, auth.NewAuthenticator("", "", testCodec()), nil, discardLogger())
		w := httptest.NewRecorder()
		h.HandleReady(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", w.Code)
		}
		if resp := decodeBody(t, w); resp["database"] != "not configured" {
			t.Errorf("expected database=not configured, got %v", resp["database"])
		}
	})

	t.Run("ping fails", func(t *testing.T) {
		t.Parallel()
		h, store := newTestHandler(t)
		store.PingFunc = func(context.Context) error { return errors.New("database is locked") }
		w := httptest.NewRecorder()
		h.HandleReady(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", w.Code)
		}
		if resp := decodeBody(t, w); resp["database"] != "unavailable" {
			t.Errorf("expected database=unavailable, got %v", resp["database"])
		}
	})
}
