package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sipico/catalog-backend/internal/storage"
)

// UpdateSettingsRequest changes the about and/or contact text of one settings row.
// A zero ID targets the default row; nil texts are left unchanged.
type UpdateSettingsRequest struct {
	ID          int64   `json:"id"`
	AboutText   *string `json:"about_text"`
	ContactText *string `json:"contact_text"`
}

// HandleUpdateSettings applies a targeted settings update
// POST /api/admin/settings
// Body: {"id": 1, "about_text": "...", "contact_text": "..."}
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if req.ID == 0 {
		req.ID = storage.DefaultSettingsID
	}

	all, err := h.storage.ListSettings(r.Context())
	if err != nil {
		h.logger.Error("failed to read settings", "error", err)
		WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
		return
	}

	var current *storage.SiteSettings
	for _, s := range all {
		if s.ID == req.ID {
			current = s
			break
		}
	}
	if current == nil {
		WriteError(w, http.StatusNotFound, MsgSettingsNotFound)
		return
	}

	if req.AboutText != nil {
		current.AboutText = *req.AboutText
	}
	if req.ContactText != nil {
		current.ContactText = *req.ContactText
	}

	if err := h.storage.UpdateSettings(r.Context(), current); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, MsgSettingsNotFound)
			return
		}
		h.logger.Error("failed to update settings", "id", req.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
		return
	}

	h.logger.Info("site settings updated", "id", req.ID)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"settings": current,
	})
}
