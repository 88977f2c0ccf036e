package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/sipico/catalog-backend/internal/storage"
)

func TestBackup_ListAfterTwoCreates(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)
	store.Seed(&storage.Product{ID: 1, Title: "one"})

	for _, label := range []string{"first", "second"} {
		w := doRequest(t, h, "POST", "/api/admin-backup?action=create", map[string]string{"label": label}, true)
		if w.Code != http.StatusOK {
			t.Fatalf("create %s: expected status 200, got %d: %s", label, w.Code, w.Body.String())
		}
		resp := decodeBody(t, w)
		if resp["success"] != true || resp["record_count"] != float64(1) {
			t.Errorf("unexpected create response: %v", resp)
		}
	}

	w := doRequest(t, h, "GET", "/api/admin-backup?action=list", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Backups []map[string]any `json:"backups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(resp.Backups))
	}
	if resp.Backups[0]["label"] != "second" || resp.Backups[1]["label"] != "first" {
		t.Errorf("expected newest first, got %v then %v", resp.Backups[0]["label"], resp.Backups[1]["label"])
	}
	for _, b := range resp.Backups {
		if _, ok := b["data"]; ok {
			t.Error("list response must not include data")
		}
		for _, key := range []string{"id", "label", "record_count", "created_at"} {
			if _, ok := b[key]; !ok {
				t.Errorf("summary missing %q: %v", key, b)
			}
		}
	}
}

func TestBackup_CreateWithoutBodyUsesDefaultLabel(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	w := doRequest(t, h, "POST", "/api/admin-backup?action=create", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, "GET", "/api/admin-backup?action=list", nil, true)
	var resp ListBackupsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Backups) != 1 || resp.Backups[0].Label != "Backup 2024/1/2 03:04:05" {
		t.Errorf("unexpected backups: %+v", resp.Backups)
	}
}

func TestBackup_CreateStoreFailure(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)
	store.ListProductsFunc = func(context.Context) ([]*storage.Product, error) {
		return nil, errors.New("disk I/O error")
	}

	w := doRequest(t, h, "POST", "/api/admin-backup?action=create", nil, true)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if store.BackupCount() != 0 {
		t.Error("no backup should be stored when reading the catalog fails")
	}
}

func TestBackup_DownloadStoredIsVerbatim(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)

	stored := []byte(`{"version":"1.0","timestamp":"2023-05-06T07:08:09.000Z","record_count":0,"products":[],"site_settings":[]}`)
	summary, err := store.CreateBackup(context.Background(), "imported", 0, stored)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	target := "/api/admin-backup?action=download&id=" + strconv.FormatInt(summary.ID, 10)
	first := doRequest(t, h, "GET", target, nil, true)
	second := doRequest(t, h, "GET", target, nil, true)

	if first.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", first.Code)
	}
	if first.Body.String() != string(stored) {
		t.Errorf("download = %s, want stored bytes %s", first.Body.String(), stored)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("repeated downloads differ")
	}
}

func TestBackup_DownloadLive(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)
	store.Seed(&storage.Product{ID: 7, Title: "live"})

	w := doRequest(t, h, "GET", "/api/admin-backup?action=download", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	resp := decodeBody(t, w)
	if resp["version"] != "1.0" || resp["record_count"] != float64(1) {
		t.Errorf("unexpected snapshot header: %v", resp)
	}
	products, _ := resp["products"].([]any)
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %v", resp["products"])
	}
	if store.BackupCount() != 0 {
		t.Error("live download must not store a backup")
	}
}

func TestBackup_DownloadErrors(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	if w := doRequest(t, h, "GET", "/api/admin-backup?action=download&id=abc", nil, true); w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: expected 400, got %d", w.Code)
	}
	if w := doRequest(t, h, "GET", "/api/admin-backup?action=download&id=99", nil, true); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestBackup_Delete(t *testing.T) {
	t.Parallel()
	h, store := newTestHandler(t)

	summary, err := store.CreateBackup(context.Background(), "old", 0, []byte("{}"))
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	w := doRequest(t, h, "POST", "/api/admin-backup?action=delete", map[string]int64{"id": summary.ID}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.BackupCount() != 0 {
		t.Error("backup not deleted")
	}

	w = doRequest(t, h, "POST", "/api/admin-backup?action=delete", map[string]int64{"id": summary.ID}, true)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}

	w = doRequest(t, h, "POST", "/api/admin-backup?action=delete", map[string]any{}, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing id: expected 400, got %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["error"] != MsgMissingBackupID {
		t.Errorf("unexpected error: %v", resp["error"])
	}
}

func TestBackup_InvalidAction(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	tests := []struct {
		method string
		target string
	}{
		{"GET", "/api/admin-backup"},
		{"GET", "/api/admin-backup?action=purge"},
		{"GET", "/api/admin-backup?action=create"},
		{"POST", "/api/admin-backup?action=list"},
	}
	for _, tt := range tests {
		w := doRequest(t, h, tt.method, tt.target, nil, true)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tt.method, tt.target, w.Code)
			continue
		}
		if resp := decodeBody(t, w); resp["error"] != MsgInvalidAction {
			t.Errorf("%s %s: unexpected error %v", tt.method, tt.target, resp["error"])
		}
	}
}
