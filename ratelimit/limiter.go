package ratelimit

import (
	"sync"
	"time"
)

// windowLength is the fixed rate-limit window.
const windowLength = time.Minute

// Limiter implements fixed-window rate limiting per webhook. Counts reset
// wholesale when a window expires; there is no sliding behavior, so a burst
// straddling two windows can briefly see double the configured rate.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time
}

type window struct {
	start time.Time
	count int
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether the webhook's current window admits another event,
// counting it when it does. A limit of 0 means unlimited (always returns
// true).
func (l *Limiter) Allow(webhookID string, limit int) bool {
	if limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[webhookID]
	if !ok || now.Sub(w.start) >= windowLength {
		w = &window{start: now}
		l.windows[webhookID] = w
	}

	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

// Remaining reports how many events the webhook's current window still
// admits, without counting one. A limit of 0 reports -1 (unlimited).
func (l *Limiter) Remaining(webhookID string, limit int) int {
	if limit <= 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[webhookID]
	if !ok || l.now().Sub(w.start) >= windowLength {
		return limit
	}

	if w.count >= limit {
		return 0
	}
	return limit - w.count
}

// Reset clears the rate limit state for a webhook.
func (l *Limiter) Reset(webhookID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, webhookID)
}

// ResetAll clears the rate limit state for every webhook.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*window)
}
