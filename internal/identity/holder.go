package identity

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Holder keeps the identity the next comment will be posted under. Each
// Refresh is an independent request; whichever completes last wins.
type Holder struct {
	fetcher Fetcher
	current atomic.Pointer[Identity]
	log     *logrus.Entry
}

func NewHolder(f Fetcher, log *logrus.Entry) *Holder {
	if log == nil {
		log = logrus.WithField("component", "identity")
	}
	return &Holder{fetcher: f, log: log}
}

// Current returns the held identity, or nil when none is available.
func (h *Holder) Current() *Identity {
	id := h.current.Load()
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

// Refresh fetches a new identity. A failed fetch clears the held identity and
// returns nil; the error is logged, not returned.
func (h *Holder) Refresh(ctx context.Context) *Identity {
	id, err := h.fetcher.Fetch(ctx)
	if err != nil {
		h.log.WithError(err).Warn("failed to fetch random identity")
		h.current.Store(nil)
		return nil
	}

	h.current.Store(id)
	h.log.WithField("name", id.Name).Debug("identity refreshed")
	cp := *id
	return &cp
}

// Set replaces the held identity directly.
func (h *Holder) Set(id *Identity) {
	h.current.Store(id)
}
