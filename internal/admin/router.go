package admin

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sipico/catalog-backend/internal/auth"
)

// NewRouter creates a router serving only the admin and health routes
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the health and admin routes to r.
// Paths are registered in full so other packages can share the /api prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Public endpoints (no auth)
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	if h.limiter.Enabled() {
		r.With(h.limiter.Middleware).Post("/api/admin-auth", h.HandleLogin)
	} else {
		r.Post("/api/admin-auth", h.HandleLogin)
	}
	r.Post("/api/admin-verify", h.HandleVerify)

	// Admin API (token gate)
	r.Group(func(r chi.Router) {
		r.Use(auth.Gate(h.auth.Codec()))

		r.Get("/api/admin-backup", h.HandleBackup)
		r.Post("/api/admin-backup", h.HandleBackup)
		r.Post("/api/admin-restore", h.HandleRestore)

		r.Post("/api/admin/products", h.HandleProducts)
		r.Post("/api/admin/settings", h.HandleUpdateSettings)
		r.Post("/api/admin/loglevel", h.HandleSetLogLevel)
	})
}
