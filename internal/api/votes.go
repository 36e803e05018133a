package api

import (
	"context"
	"net/http"

	"github.com/alphabot-ai/commentwall/internal/store"
)

type mutation func(ctx context.Context, id int64) (*store.Comment, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn mutation) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	c, err := fn(r.Context(), id)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

// Upvote handles POST /api/comments/{id}/upvote
func (h *Handler) Upvote(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.board.Upvote)
}

// Downvote handles POST /api/comments/{id}/downvote
func (h *Handler) Downvote(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.board.Downvote)
}

// ToggleFavorite handles POST /api/comments/{id}/favorite
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.board.ToggleFavorite)
}
