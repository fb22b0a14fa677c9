package requestgovernor

import (
	"sync"
	"time"
)

// Metrics is a point-in-time snapshot of governor counters and derived state.
type Metrics struct {
	TotalRequests      uint64        `json:"totalRequests"`
	SuccessfulRequests uint64        `json:"successfulRequests"`
	FailedRequests     uint64        `json:"failedRequests"`
	RateLimitHits      uint64        `json:"rateLimitHits"`
	CacheHits          uint64        `json:"cacheHits"`
	EmptyResults       uint64        `json:"emptyResults"`
	AverageLatency     time.Duration `json:"averageLatency"`

	QueueLength    int         `json:"queueLength"`
	ActiveRequests int         `json:"activeRequests"`
	CacheSize      int         `json:"cacheSize"`
	APIHealth      HealthState `json:"apiHealth"`
}

// counters holds the monotonic part of Metrics. Only ResetMetrics zeroes it.
type counters struct {
	mu sync.Mutex
	m  Metrics
}

func (c *counters) update(fn func(m *Metrics)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.m)
}

// recordSuccess increments successfulRequests and folds latency into the running average.
func (c *counters) recordSuccess(latency time.Duration, empty bool) {
	c.update(func(m *Metrics) {
		m.SuccessfulRequests++
		if empty {
			m.EmptyResults++
		}
		n := time.Duration(m.SuccessfulRequests)
		m.AverageLatency = (m.AverageLatency*(n-1) + latency) / n
	})
}

func (c *counters) snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}

func (c *counters) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = Metrics{}
}
