// Package feed serves the public, read-mostly catalog API.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sipico/catalog-backend/internal/storage"
)

// Store is the subset of storage used by the public feed.
type Store interface {
	ListProducts(ctx context.Context) ([]*storage.Product, error)
	GetProduct(ctx context.Context, id int64) (*storage.Product, error)
	ListSettings(ctx context.Context) ([]*storage.SiteSettings, error)
	IncrementCounter(ctx context.Context, id int64, counter storage.Counter) (int64, error)
}

// Handler serves the public endpoints.
type Handler struct {
	store    Store
	logger   *slog.Logger
	siteName string
}

// NewHandler creates a feed handler.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger, siteName: DefaultSiteName}
}

// RegisterRoutes adds the public routes to r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/products", h.HandleListProducts)
	r.Get("/api/products/{id}", h.HandleGetProduct)
	r.Post("/api/products/{id}/view", h.HandleCounter(storage.CounterViews))
	r.Post("/api/products/{id}/fav", h.HandleCounter(storage.CounterFav))
	r.Get("/api/settings", h.HandleGetSettings)
	r.Get("/api/product-og", h.HandleSharePage)
}

// HandleListProducts returns the catalog ordered by sort_order
// GET /api/products
func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleGetProduct returns one product
// GET /api/products/{id}
func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to get product", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleCounter returns a handler that bumps counter and reports the new value
// POST /api/products/{id}/view
// POST /api/products/{id}/fav
func (h *Handler) HandleCounter(counter storage.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productID(w, r)
		if !ok {
			return
		}

		value, err := h.store.IncrementCounter(r.Context(), id, counter)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Product not found")
				return
			}
			h.logger.Error("failed to increment counter", "id", id, "counter", counter, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{
			"id":            id,
			string(counter): value,
		})
	}
}

// HandleGetSettings returns the default settings row
// GET /api/settings
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		h.logger.Error("failed to list settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	for _, s := range settings {
		if s.ID == storage.DefaultSettingsID {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Settings not found")
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
