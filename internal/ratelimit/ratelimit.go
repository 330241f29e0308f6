// Package ratelimit implements a fixed-window request limiter keyed by
// caller identity.
package ratelimit

import (
	"sync"
	"time"
)

// sweepThreshold is the map size at which stale windows are evicted.
const sweepThreshold = 1024

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the caller's window resets.
	// Only set when the request is denied.
	RetryAfter time.Duration
	// Remaining is how many requests the caller has left in the
	// current window.
	Remaining int
}

type window struct {
	start time.Time
	count int
}

// Limiter caps each caller key at max requests per fixed window.
// Counters reset at the window boundary. State is process-local.
//
// Safe for concurrent use.
type Limiter struct {
	windowLen time.Duration
	max       int

	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time // injectable for tests
}

// New creates a limiter allowing max requests per windowLen per key.
func New(windowLen time.Duration, max int) *Limiter {
	return &Limiter{
		windowLen: windowLen,
		max:       max,
		windows:   make(map[string]*window),
		now:       time.Now,
	}
}

// Allow records one request for key and reports whether it is admitted.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.windowLen {
		if !ok && len(l.windows) >= sweepThreshold {
			l.sweep(now)
		}
		l.windows[key] = &window{start: now, count: 1}
		return Decision{Allowed: true, Remaining: l.max - 1}
	}

	if w.count >= l.max {
		return Decision{
			Allowed:    false,
			RetryAfter: w.start.Add(l.windowLen).Sub(now),
		}
	}

	w.count++
	return Decision{Allowed: true, Remaining: l.max - w.count}
}

// sweep drops expired windows to bound memory. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.windowLen {
			delete(l.windows, key)
		}
	}
}
