package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sipico/catalog-backend/internal/storage"
	"github.com/sipico/catalog-backend/internal/testutil/memstore"
)

func newTestRouter(t *testing.T) (http.Handler, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	h := NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, store
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestListProducts(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)

	w := serve(router, "GET", "/api/products")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON list, got %q", body)
	}

	store.Seed(
		&storage.Product{ID: 1, Title: "b", SortOrder: 2},
		&storage.Product{ID: 2, Title: "a", SortOrder: 1},
	)
	w = serve(router, "GET", "/api/products")

	var products []storage.Product
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(products) != 2 || products[0].ID != 2 || products[1].ID != 1 {
		t.Errorf("unexpected order: %+v", products)
	}
}

func TestGetProduct(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)
	store.Seed(&storage.Product{ID: 5, Title: "Lamp"})

	tests := []struct {
		target string
		want   int
	}{
		{"/api/products/5", http.StatusOK},
		{"/api/products/6", http.StatusNotFound},
		{"/api/products/abc", http.StatusBadRequest},
		{"/api/products/-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := serve(router, "GET", tt.target); w.Code != tt.want {
			t.Errorf("GET %s: expected %d, got %d", tt.target, tt.want, w.Code)
		}
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)
	store.Seed(&storage.Product{ID: 5, Title: "Lamp", Views: 3000, Fav: 300})

	w := serve(router, "POST", "/api/products/5/view")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["views"] != 3001 || resp["id"] != 5 {
		t.Errorf("unexpected response: %v", resp)
	}

	w = serve(router, "POST", "/api/products/5/fav")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["fav"] != 301 {
		t.Errorf("fav = %d, want 301", resp["fav"])
	}

	if w := serve(router, "POST", "/api/products/9/fav"); w.Code != http.StatusNotFound {
		t.Errorf("unknown product: expected 404, got %d", w.Code)
	}
}

func TestGetSettings(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)
	if err := store.UpdateSettings(context.Background(), &storage.SiteSettings{ID: storage.DefaultSettingsID, AboutText: "about"}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	w := serve(router, "GET", "/api/settings")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var s storage.SiteSettings
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if s.AboutText != "about" {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestStoreErrors(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)
	boom := errors.New("database is locked")
	store.ListProductsFunc = func(context.Context) ([]*storage.Product, error) { return nil, boom }
	store.ListSettingsFunc = func(context.Context) ([]*storage.SiteSettings, error) { return nil, boom }

	for _, target := range []string{"/api/products", "/api/settings"} {
		if w := serve(router, "GET", target); w.Code != http.StatusInternalServerError {
			t.Errorf("GET %s: expected 500, got %d", target, w.Code)
		}
	}
}

func TestSharePage(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)
	store.Seed(
		&storage.Product{ID: 5, Title: `<b>Lamp</b>`, Images: []string{"https://cdn.example.com/lamp.jpg"}},
		&storage.Product{ID: 6},
	)

	req := httptest.NewRequest("GET", "/api/product-og?id=5", nil)
	req.Host = "shop.example.com"
	req.Header.Set("X-Forwarded-Proto", "http")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{
		"<title>先越科技 - &lt;b&gt;Lamp&lt;/b&gt;</title>",
		`<meta property="og:image" content="https://cdn.example.com/lamp.jpg" />`,
		`<meta property="og:url" content="http://shop.example.com/?product=5" />`,
		`content="0;url=/?product=5"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("share page missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<b>Lamp") {
		t.Error("product title was not escaped")
	}

	w = serve(router, "GET", "/api/product-og?id=6")
	if body := w.Body.String(); !strings.Contains(body, "先越科技 - 产品") || strings.Contains(body, "og:image") {
		t.Errorf("unexpected share page for untitled product:\n%s", body)
	}
}

func TestSharePageRedirects(t *testing.T) {
	t.Parallel()
	router, store := newTestRouter(t)
	store.GetProductFunc = func(_ context.Context, id int64) (*storage.Product, error) {
		if id == 7 {
			return nil, errors.New("database is locked")
		}
		return nil, storage.ErrNotFound
	}

	for _, target := range []string{
		"/api/product-og",
		"/api/product-og?id=abc",
		"/api/product-og?id=9",
		"/api/product-og?id=7",
	} {
		w := serve(router, "GET", target)
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
			t.Errorf("GET %s: expected 302 to /, got %d %q", target, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestSetSiteName(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	store.Seed(&storage.Product{ID: 1, Title: "Desk"})
	h := NewHandler(store, nil)
	h.SetSiteName("")
	h.SetSiteName("Acme")
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	w := serve(r, "GET", "/api/product-og?id=1")
	if !strings.Contains(w.Body.String(), "<title>Acme - Desk</title>") {
		t.Errorf("site name not applied:\n%s", w.Body.String())
	}
}
