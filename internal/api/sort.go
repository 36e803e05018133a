package api

import (
	"encoding/json"
	"net/http"

	"github.com/alphabot-ai/commentwall/internal/store"
)

type SetSortRequest struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// GetSort handles GET /api/sort
func (h *Handler) GetSort(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.Sort())
}

// SetSort handles PUT /api/sort. An omitted order keeps the current one.
func (h *Handler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SetSortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	current := h.board.Sort()

	field, ok := store.ParseSortField(req.Field)
	if !ok {
		writeError(w, http.StatusBadRequest, "field must be 'date', 'rating' or 'replyCount'")
		return
	}

	order := current.Order
	if req.Order != "" {
		if order, ok = store.ParseSortOrder(req.Order); !ok {
			writeError(w, http.StatusBadRequest, "order must be 'asc' or 'desc'")
			return
		}
	}

	if err := h.board.SetSort(field, order); err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.board.Sort())
}

// ToggleSort handles POST /api/sort/toggle
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.ToggleSortOrder())
}
