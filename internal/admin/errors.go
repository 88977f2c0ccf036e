package admin

import (
	"encoding/json"
	"net/http"

	"github.com/sipico/catalog-backend/internal/backup"
)

// Error messages returned to admin clients.
const (
	MsgInvalidJSON      = "无效的请求数据"
	MsgInvalidAction    = "无效的 action 参数"
	MsgInvalidRequest   = "无效的请求"
	MsgInvalidFormat    = "无效的数据格式"
	MsgMissingID        = "缺少 ID"
	MsgMissingBackupID  = "缺少备份 ID"
	MsgInvalidBackupID  = "无效的备份 ID"
	MsgBackupNotFound   = "备份不存在"
	MsgProductNotFound  = "商品不存在"
	MsgSettingsNotFound = "设置不存在"
	MsgOperationFailed  = "操作失败"
	MsgBodyTooLarge     = "上传的数据过大"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are not critical since headers are already sent
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// WriteError writes a {"error": message} response with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// RestoreErrorResponse is the body of a failed restore.
type RestoreErrorResponse struct {
	Error         string `json:"error"`
	Step          string `json:"step,omitempty"`
	RestoredCount *int   `json:"restored_count,omitempty"`
}

// StatusForRestoreKind maps a restore error kind to its HTTP status code.
func StatusForRestoreKind(kind backup.ErrorKind) int {
	switch kind {
	case backup.KindInvalidFormat, backup.KindIntegrityMismatch:
		return http.StatusBadRequest
	case backup.KindNotFound:
		return http.StatusNotFound
	case backup.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeRestoreError reports a failed restore. The restored count is only
// included once staging has started.
func writeRestoreError(w http.ResponseWriter, rerr *backup.RestoreError) {
	resp := RestoreErrorResponse{
		Error: rerr.Error(),
		Step:  string(rerr.Step),
	}
	if rerr.Kind == backup.KindPartialFailure || rerr.Inserted > 0 {
		n := rerr.Inserted
		resp.RestoredCount = &n
	}
	WriteJSON(w, StatusForRestoreKind(rerr.Kind), resp)
}
