package api

import (
	"net/http"

	"github.com/alphabot-ai/commentwall/internal/identity"
)

type IdentityResponse struct {
	Identity *identity.Identity `json:"identity"`
}

// GetIdentity handles GET /api/identity
func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IdentityResponse{Identity: h.identities.Current()})
}

// RefreshIdentity handles POST /api/identity. A failed fetch answers 503 so
// the client can offer a retry.
func (h *Handler) RefreshIdentity(w http.ResponseWriter, r *http.Request) {
	if !h.checkRateLimit(w, r, h.refreshes, "identity") {
		return
	}

	id := h.identities.Refresh(r.Context())
	if id == nil {
		writeError(w, http.StatusServiceUnavailable, "identity unavailable, refresh and retry")
		return
	}
	writeJSON(w, http.StatusOK, IdentityResponse{Identity: id})
}
