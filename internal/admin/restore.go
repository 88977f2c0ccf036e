package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sipico/catalog-backend/internal/backup"
)

// RestoreRequest is the body of POST /api/admin-restore.
// Exactly one of BackupID and UploadedData must be set.
type RestoreRequest struct {
	BackupID     int64           `json:"backupId"`
	UploadedData json.RawMessage `json:"uploadedData"`
}

// RestoreResponse reports a completed restore.
type RestoreResponse struct {
	Success        bool  `json:"success"`
	RestoredCount  int   `json:"restored_count"`
	SafetyBackupID int64 `json:"safety_backup_id"`
}

// HandleRestore replaces the catalog with a stored or uploaded snapshot
// POST /api/admin-restore
// Body: {"backupId": N} or {"uploadedData": {...}}
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	result, err := h.restorer.Restore(r.Context(), backup.Source{
		BackupID: req.BackupID,
		Uploaded: req.UploadedData,
	})
	if err != nil {
		var rerr *backup.RestoreError
		if errors.As(err, &rerr) {
			writeRestoreError(w, rerr)
			return
		}
		h.logger.Error("restore failed", "error", err)
		WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
		return
	}

	WriteJSON(w, http.StatusOK, RestoreResponse{
		Success:        true,
		RestoredCount:  result.RestoredCount,
		SafetyBackupID: result.SafetyBackupID,
	})
}
