package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sipico/catalog-backend/internal/backup"
	"github.com/sipico/catalog-backend/internal/storage"
)

// Product actions selected by the "action" query parameter.
const (
	ActionUpdate  = "update"
	ActionReorder = "reorder"
)

// UpdateProductRequest is the body of action=update: the id plus the fields to change.
type UpdateProductRequest struct {
	ID int64 `json:"id"`
	storage.ProductPatch
}

// DeleteProductRequest is the body of action=delete.
type DeleteProductRequest struct {
	ID int64 `json:"id"`
}

// ReorderRequest is the body of action=reorder.
type ReorderRequest struct {
	Updates []storage.SortOrderUpdate `json:"updates"`
}

// HandleProducts dispatches catalog edits on the action query parameter
// POST /api/admin/products?action=create|update|delete|reorder
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case ActionCreate:
		h.createProduct(w, r)
	case ActionUpdate:
		h.updateProduct(w, r)
	case ActionDelete:
		h.deleteProduct(w, r)
	case ActionReorder:
		h.reorderProducts(w, r)
	default:
		WriteError(w, http.StatusBadRequest, MsgInvalidRequest)
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	// Same shape as a snapshot product, so absent counters get the
	// catalog defaults rather than zero.
	var req backup.SnapshotProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	created, err := h.storage.CreateProduct(r.Context(), req.Normalize(time.Now()))
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			WriteError(w, http.StatusConflict, "商品 ID 已存在")
			return
		}
		h.logger.Error("failed to create product", "error", err)
		WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
		return
	}

	h.logger.Info("product created", "id", created.ID)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": created,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if req.ID == 0 {
		WriteError(w, http.StatusBadRequest, MsgMissingID)
		return
	}

	if err := h.storage.UpdateProduct(r.Context(), req.ID, &req.ProductPatch); err != nil {
		h.writeProductError(w, "update", req.ID, err)
		return
	}

	h.logger.Info("product updated", "id", req.ID)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	var req DeleteProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	if req.ID == 0 {
		WriteError(w, http.StatusBadRequest, MsgMissingID)
		return
	}

	if err := h.storage.DeleteProduct(r.Context(), req.ID); err != nil {
		h.writeProductError(w, "delete", req.ID, err)
		return
	}

	h.logger.Info("product deleted", "id", req.ID)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) reorderProducts(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Updates == nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidFormat)
		return
	}

	if err := h.storage.UpdateSortOrders(r.Context(), req.Updates); err != nil {
		h.logger.Error("failed to reorder products", "count", len(req.Updates), "error", err)
		WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
		return
	}

	h.logger.Info("products reordered", "count", len(req.Updates))
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) writeProductError(w http.ResponseWriter, op string, id int64, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, MsgProductNotFound)
		return
	}
	h.logger.Error("product "+op+" failed", "id", id, "error", err)
	WriteError(w, http.StatusInternalServerError, MsgOperationFailed)
}
