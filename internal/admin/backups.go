package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sipico/catalog-backend/internal/storage"
)

// Backup actions selected by the "action" query parameter.
const (
	ActionList     = "list"
	ActionCreate   = "create"
	ActionDownload = "download"
	ActionDelete   = "delete"
)

// CreateBackupRequest is the optional body of action=create.
type CreateBackupRequest struct {
	Label string `json:"label"`
}

// DeleteBackupRequest is the body of action=delete.
type DeleteBackupRequest struct {
	ID int64 `json:"id"`
}

// ListBackupsResponse lists stored backups without their payloads.
type ListBackupsResponse struct {
	Backups []*storage.BackupSummary `json:"backups"`
}

// HandleBackup dispatches backup management on the action query parameter
// GET  /api/admin-backup?action=list
// POST /api/admin-backup?action=create   Body: {"label": "..."}
// GET  /api/admin-backup?action=download[&id=N]
// POST /api/admin-backup?action=delete   Body: {"id": N}
func (h *Handler) HandleBackup(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	switch {
	case r.Method == http.MethodGet && action == ActionList:
		h.listBackups(w, r)
	case r.Method == http.MethodPost && action == ActionCreate:
		h.createBackup(w, r)
	case r.Method == http.MethodGet && action == ActionDownload:
		h.downloadBackup(w, r)
	case r.Method == http.MethodPost && action == ActionDelete:
		h.deleteBackup(w, r)
	default:
		WriteError(w, http.StatusBadRequest, MsgInvalidAction)
	}
}

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.storage.ListBackups(r.Context(), storage.DefaultBackupListLimit)
	if err != nil {
		h.logger.Error("failed to list backups", "error", err)
		WriteError(w, http.StatusInternalServerError, "获取备份列表失败")
		return
	}
	WriteJSON(w, http.StatusOK, ListBackupsResponse{Backups: backups})
}

func (h *Handler) createBackup(w http.ResponseWriter, r *http.Request) {
	var req CreateBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	summary, err := h.builder.CreateLabeledBackup(r.Context(), req.Label)
	if err != nil {
		h.logger.Error("failed to create backup", "error", err)
		WriteError(w, http.StatusInternalServerError, "创建备份失败")
		return
	}

	h.logger.Info("backup created", "id", summary.ID, "label", summary.Label, "record_count", summary.RecordCount)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"id":           summary.ID,
		"record_count": summary.RecordCount,
	})
}

func (h *Handler) downloadBackup(w http.ResponseWriter, r *http.Request) {
	var id int64
	if raw := r.URL.Query().Get("id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, MsgInvalidBackupID)
			return
		}
		id = parsed
	}

	data, err := h.builder.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, MsgBackupNotFound)
			return
		}
		h.logger.Error("failed to download backup", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "下载备份失败")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data) //nolint:errcheck
}

func (h *Handler) deleteBackup(w http.ResponseWriter, r *http.Request) {
	var req DeleteBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if req.ID == 0 {
		WriteError(w, http.StatusBadRequest, MsgMissingBackupID)
		return
	}

	if err := h.storage.DeleteBackup(r.Context(), req.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, MsgBackupNotFound)
			return
		}
		h.logger.Error("failed to delete backup", "id", req.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, "删除备份失败")
		return
	}

	h.logger.Info("backup deleted", "id", req.ID)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
