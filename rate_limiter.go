// rate_limiter.go
// ----------------
// This file defines the RateLimiter type, which holds the sliding-window admission state of a
// Governor: the dispatch timestamps that fall inside the trailing window.
//
// Responsibilities:
// - Pruning timestamps older than the window before every admission check.
// - Deciding whether another dispatch fits in the current window.
// - Calculating how long the drain loop must wait before the window frees a slot.
//
// The concurrency half of admission (in-flight operations) is enforced by the Governor's semaphore.
package requestgovernor

import (
	"sync"
	"time"
)

type RateLimiter struct {
	mu          sync.Mutex
	window      time.Duration
	maxRequests int
	history     []time.Time
}

func NewRateLimiter(window time.Duration, maxRequests int) *RateLimiter {
	return &RateLimiter{
		window:      window,
		maxRequests: maxRequests,
		history:     make([]time.Time, 0, maxRequests),
	}
}

// canProceed prunes the history to the window ending at now and reports whether another
// dispatch is admissible.
func (r *RateLimiter) canProceed(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(now)
	return len(r.history) < r.maxRequests
}

// recordRequest appends a dispatch timestamp.
func (r *RateLimiter) recordRequest(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, now)
}

// delayBeforeNextRequest calculates how long to wait before re-checking admission: the time until
// the oldest dispatch leaves the window, but never less than minInterval. With an empty history
// the oldest dispatch is taken to be now.
func (r *RateLimiter) delayBeforeNextRequest(now time.Time, minInterval time.Duration) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	oldest := now
	if len(r.history) > 0 {
		oldest = r.history[0]
	}
	delay := r.window - now.Sub(oldest)
	if delay < minInterval {
		delay = minInterval
	}
	return delay
}

// prune drops timestamps that are window or more in the past. Callers hold r.mu.
func (r *RateLimiter) prune(now time.Time) {
	keep := 0
	for keep < len(r.history) && now.Sub(r.history[keep]) >= r.window {
		keep++
	}
	if keep > 0 {
		r.history = append(r.history[:0], r.history[keep:]...)
	}
}
