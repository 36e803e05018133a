package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alphabot-ai/commentwall/internal/comments"
	"github.com/alphabot-ai/commentwall/internal/identity"
	"github.com/alphabot-ai/commentwall/internal/ratelimit"
	"github.com/alphabot-ai/commentwall/internal/store"
)

// Handler holds dependencies for API handlers
type Handler struct {
	board      *comments.Store
	identities *identity.Holder
	comments   ratelimit.Limiter
	refreshes  ratelimit.Limiter
	log        *logrus.Entry
}

type Option func(*Handler)

// WithCommentLimiter limits comment and reply posting per client.
func WithCommentLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) { h.comments = l }
}

// WithIdentityLimiter limits identity refreshes per client.
func WithIdentityLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) { h.refreshes = l }
}

func WithLogger(log *logrus.Entry) Option {
	return func(h *Handler) { h.log = log }
}

// NewHandler creates a new API handler
func NewHandler(board *comments.Store, identities *identity.Holder, opts ...Option) *Handler {
	h := &Handler{
		board:      board,
		identities: identities,
		log:        logrus.WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Response helpers

type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// CommentView is a comment as rendered to clients, with its derived style.
// Replies also carry their parent's author name.
type CommentView struct {
	ID               int64           `json:"id"`
	ParentID         *int64          `json:"parentId"`
	ParentAuthorName string          `json:"parentAuthorName,omitempty"`
	AuthorAvatar     string          `json:"authorAvatar"`
	AuthorName       string          `json:"authorName"`
	Text             string          `json:"text"`
	CreatedAt        time.Time       `json:"createdAt"`
	VoteScore        int             `json:"voteScore"`
	IsFavorite       bool            `json:"isFavorite"`
	VoteStyle        store.VoteStyle `json:"voteStyle"`
}

func viewOf(c *store.Comment) CommentView {
	return CommentView{
		ID:           c.ID,
		ParentID:     c.ParentID,
		AuthorAvatar: c.AuthorAvatar,
		AuthorName:   c.AuthorName,
		Text:         c.Text,
		CreatedAt:    c.CreatedAt,
		VoteScore:    c.VoteScore,
		IsFavorite:   c.IsFavorite,
		VoteStyle:    c.Style(),
	}
}

func viewsOf(cs []*store.Comment) []CommentView {
	out := make([]CommentView, 0, len(cs))
	for _, c := range cs {
		out = append(out, viewOf(c))
	}
	return out
}

// replyViewsOf renders replies tagged with their parent's author.
func replyViewsOf(parent *store.Comment, replies []*store.Comment) []CommentView {
	out := viewsOf(replies)
	for i := range out {
		out[i].ParentAuthorName = parent.AuthorName
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(retryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:      "rate limit exceeded",
		RetryAfter: secs,
	})
}

// writeBoardError maps comment store errors onto HTTP statuses.
func (h *Handler) writeBoardError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, comments.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, comments.ErrIdentityUnavailable):
		writeError(w, http.StatusServiceUnavailable, "identity unavailable, refresh and retry")
	case errors.Is(err, comments.ErrNotFound):
		writeError(w, http.StatusNotFound, "comment not found")
	default:
		h.log.WithError(err).WithField("request_id", RequestIDFromContext(r.Context())).Error("comment board error")
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}

// Request helpers

func (h *Handler) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	// Check X-Real-IP
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// checkRateLimit writes a 429 and returns false when the client is over the limit.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request, l ratelimit.Limiter, action string) bool {
	if l == nil {
		return true
	}
	ok, retryAfter := l.Allow(action + ":" + h.getClientIP(r))
	if !ok {
		writeRateLimited(w, retryAfter)
	}
	return ok
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}
