package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Routes mounts the API, health and metrics endpoints and wraps them with
// request ids, logging and tracing.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Comments
	mux.HandleFunc("GET /api/comments", h.ListComments)
	mux.HandleFunc("POST /api/comments", h.CreateComment)
	mux.HandleFunc("DELETE /api/comments", h.ClearComments)
	mux.HandleFunc("GET /api/comments/{id}", h.GetComment)
	mux.HandleFunc("GET /api/comments/{id}/replies", h.ListReplies)
	mux.HandleFunc("POST /api/comments/{id}/replies", h.CreateReply)
	mux.HandleFunc("POST /api/comments/{id}/upvote", h.Upvote)
	mux.HandleFunc("POST /api/comments/{id}/downvote", h.Downvote)
	mux.HandleFunc("POST /api/comments/{id}/favorite", h.ToggleFavorite)

	// Sorting
	mux.HandleFunc("GET /api/sort", h.GetSort)
	mux.HandleFunc("PUT /api/sort", h.SetSort)
	mux.HandleFunc("POST /api/sort/toggle", h.ToggleSort)

	// Identity
	mux.HandleFunc("GET /api/identity", h.GetIdentity)
	mux.HandleFunc("POST /api/identity", h.RefreshIdentity)

	var handler http.Handler = mux
	handler = LogRequests(h.log, handler)
	handler = RequestID(handler)
	return otelhttp.NewHandler(handler, "commentwall")
}
