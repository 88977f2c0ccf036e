package admin

import (
	"context"
	"net/http"
	"testing"
)

func TestUpdateSettings(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)

	w := doRequest(t, h, "POST", "/api/admin/settings", map[string]string{"about_text": "about us", "contact_text": "mail"}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Only the contact text changes; the about text is kept.
	w = doRequest(t, h, "POST", "/api/admin/settings", map[string]string{"contact_text": "call"}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	settings, _ := store.ListSettings(context.Background())
	if settings[0].AboutText != "about us" || settings[0].ContactText != "call" {
		t.Errorf("unexpected settings: %+v", settings[0])
	}
}

func TestUpdateSettings_Errors(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	if w := doRequest(t, h, "POST", "/api/admin/settings", map[string]any{"id": 9, "about_text": "x"}, true); w.Code != http.StatusNotFound {
		t.Errorf("unknown row: expected 404, got %d", w.Code)
	}
	if w := doRequest(t, h, "POST", "/api/admin/settings", "nope", true); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", w.Code)
	}
}
