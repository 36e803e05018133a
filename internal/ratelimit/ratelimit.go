package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a keyed action may proceed.
type Limiter interface {
	// Allow records one action for key. When the action is refused it also
	// returns how long until the key's window resets.
	Allow(key string) (bool, time.Duration)
}

// Window is a fixed-window counter: at most Limit actions per key per Period.
type Window struct {
	Limit  int
	Period time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	count int
	reset time.Time
}

func NewWindow(limit int, period time.Duration) *Window {
	return &Window{
		Limit:   limit,
		Period:  period,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (w *Window) Allow(key string) (bool, time.Duration) {
	if w.Limit <= 0 {
		return true, 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	b, ok := w.buckets[key]
	if !ok || !now.Before(b.reset) {
		w.buckets[key] = &bucket{count: 1, reset: now.Add(w.Period)}
		return true, 0
	}

	if b.count >= w.Limit {
		return false, b.reset.Sub(now)
	}

	b.count++
	return true, 0
}

// Len reports how many keys are currently tracked.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buckets)
}

// Sweep drops buckets whose window has passed.
func (w *Window) Sweep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for key, b := range w.buckets {
		if !now.Before(b.reset) {
			delete(w.buckets, key)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (w *Window) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

var _ Limiter = (*Window)(nil)
