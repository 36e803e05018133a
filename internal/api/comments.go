package api

import (
	"encoding/json"
	"net/http"

	"github.com/alphabot-ai/commentwall/internal/identity"
	"github.com/alphabot-ai/commentwall/internal/store"
)

type CreateCommentRequest struct {
	Text string `json:"text"`
}

type CreateCommentResponse struct {
	Comment CommentView `json:"comment"`
	// NextIdentity is the identity the following comment will be posted
	// under, or null if the refresh failed.
	NextIdentity *identity.Identity `json:"next_identity"`
}

type ThreadView struct {
	CommentView
	Replies []CommentView `json:"replies"`
}

type ListCommentsResponse struct {
	Sort     store.SortSpec `json:"sort"`
	Comments []ThreadView   `json:"comments"`
}

type FavoritesResponse struct {
	Comments []CommentView `json:"comments"`
}

type RepliesResponse struct {
	Replies []CommentView `json:"replies"`
}

// ListComments handles GET /api/comments
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	if fav := r.URL.Query().Get("favorites"); fav == "1" || fav == "true" {
		writeJSON(w, http.StatusOK, FavoritesResponse{Comments: viewsOf(h.board.FavoritesOnly())})
		return
	}

	threads := h.board.Thread()
	resp := ListCommentsResponse{
		Sort:     h.board.Sort(),
		Comments: make([]ThreadView, 0, len(threads)),
	}
	for _, t := range threads {
		resp.Comments = append(resp.Comments, ThreadView{
			CommentView: viewOf(t.Comment),
			Replies:     replyViewsOf(t.Comment, t.Replies),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateComment handles POST /api/comments
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, nil)
}

// CreateReply handles POST /api/comments/{id}/replies
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	h.create(w, r, &parentID)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, parentID *int64) {
	if !h.checkRateLimit(w, r, h.comments, "comment") {
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	author := h.identities.Current()

	var (
		c   *store.Comment
		err error
	)
	if parentID == nil {
		c, err = h.board.AddComment(r.Context(), req.Text, author)
	} else {
		c, err = h.board.AddReply(r.Context(), *parentID, req.Text, author)
	}
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}

	view := viewOf(c)
	if parentID != nil {
		if parent, err := h.board.Get(*parentID); err == nil {
			view.ParentAuthorName = parent.AuthorName
		}
	}

	// Each comment gets a fresh identity for the next one.
	next := h.identities.Refresh(r.Context())

	writeJSON(w, http.StatusCreated, CreateCommentResponse{Comment: view, NextIdentity: next})
}

// GetComment handles GET /api/comments/{id}
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	c, err := h.board.Get(id)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

// ListReplies handles GET /api/comments/{id}/replies
func (h *Handler) ListReplies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	parent, err := h.board.Get(id)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RepliesResponse{Replies: replyViewsOf(parent, h.board.RepliesOf(id))})
}

// ClearComments handles DELETE /api/comments
func (h *Handler) ClearComments(w http.ResponseWriter, r *http.Request) {
	if err := h.board.ClearAll(r.Context()); err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
