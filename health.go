package requestgovernor

import (
	"sync"
	"time"
)

// HealthState is a coarse view of how the upstream API is treating us.
type HealthState int

const (
	HealthUp HealthState = iota
	HealthDegraded
	HealthThrottled
)

func (h HealthState) String() string {
	switch h {
	case HealthDegraded:
		return "DEGRADED"
	case HealthThrottled:
		return "THROTTLED"
	default:
		return "UP"
	}
}

// MarshalText renders the state by name so metric snapshots serialize readably.
func (h HealthState) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// healthTracker derives HealthState from the rate-limit hits seen in a trailing window.
type healthTracker struct {
	mu            sync.Mutex
	window        time.Duration
	degradedRate  float64
	throttledRate float64
	hits          []time.Time
	state         HealthState
}

func newHealthTracker(window time.Duration, degradedRate, throttledRate float64) *healthTracker {
	return &healthTracker{
		window:        window,
		degradedRate:  degradedRate,
		throttledRate: throttledRate,
	}
}

// recordRateLimit notes a fresh hit and forces THROTTLED without waiting for the next evaluation.
func (h *healthTracker) recordRateLimit(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits = append(h.hits, now)
	h.state = HealthThrottled
}

// evaluate recomputes the state from the hit rate over the trailing window.
func (h *healthTracker) evaluate(now time.Time) HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()

	keep := 0
	for keep < len(h.hits) && now.Sub(h.hits[keep]) >= h.window {
		keep++
	}
	h.hits = append(h.hits[:0], h.hits[keep:]...)

	rate := float64(len(h.hits)) / h.window.Seconds()
	switch {
	case rate > h.throttledRate:
		h.state = HealthThrottled
	case rate > h.degradedRate:
		h.state = HealthDegraded
	default:
		h.state = HealthUp
	}
	return h.state
}

func (h *healthTracker) current() HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
