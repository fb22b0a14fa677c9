package requestgovernor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSource is anything that can produce a Metrics snapshot, normally a *Governor.
type MetricsSource interface {
	GetMetrics() Metrics
}

type metricsCollector struct {
	src MetricsSource

	totalRequests      *prometheus.Desc
	successfulRequests *prometheus.Desc
	failedRequests     *prometheus.Desc
	rateLimitHits      *prometheus.Desc
	cacheHits          *prometheus.Desc
	emptyResults       *prometheus.Desc
	averageLatency     *prometheus.Desc
	queueLength        *prometheus.Desc
	activeRequests     *prometheus.Desc
	cacheSize          *prometheus.Desc
	apiHealth          *prometheus.Desc
}

var _ prometheus.Collector = &metricsCollector{}

// NewCollector exposes a governor's metrics snapshot to Prometheus. Every scrape reads a fresh
// snapshot; counters restart from zero after ResetMetrics.
func NewCollector(src MetricsSource, namespace string) prometheus.Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "governor", name), help, labels, nil)
	}
	return &metricsCollector{
		src:                src,
		totalRequests:      desc("requests_total", "Execution attempts dispatched to the upstream API."),
		successfulRequests: desc("requests_successful_total", "Requests that resolved with a value."),
		failedRequests:     desc("requests_failed_total", "Requests rejected after a terminal error or exhausted retries."),
		rateLimitHits:      desc("rate_limit_hits_total", "Responses classified as rate limited."),
		cacheHits:          desc("cache_hits_total", "Submissions served from the result cache."),
		emptyResults:       desc("empty_results_total", "Successful responses that carried no records."),
		averageLatency:     desc("average_latency_seconds", "Running average latency of successful attempts."),
		queueLength:        desc("queue_length", "Requests waiting for admission."),
		activeRequests:     desc("active_requests", "Operations currently in flight."),
		cacheSize:          desc("cache_entries", "Entries held by the result cache."),
		apiHealth:          desc("api_health", "Current upstream health, 1 for the active state.", "state"),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalRequests
	ch <- c.successfulRequests
	ch <- c.failedRequests
	ch <- c.rateLimitHits
	ch <- c.cacheHits
	ch <- c.emptyResults
	ch <- c.averageLatency
	ch <- c.queueLength
	ch <- c.activeRequests
	ch <- c.cacheSize
	ch <- c.apiHealth
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.src.GetMetrics()

	ch <- prometheus.MustNewConstMetric(c.totalRequests, prometheus.CounterValue, float64(m.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.successfulRequests, prometheus.CounterValue, float64(m.SuccessfulRequests))
	ch <- prometheus.MustNewConstMetric(c.failedRequests, prometheus.CounterValue, float64(m.FailedRequests))
	ch <- prometheus.MustNewConstMetric(c.rateLimitHits, prometheus.CounterValue, float64(m.RateLimitHits))
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(m.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.emptyResults, prometheus.CounterValue, float64(m.EmptyResults))
	ch <- prometheus.MustNewConstMetric(c.averageLatency, prometheus.GaugeValue, m.AverageLatency.Seconds())
	ch <- prometheus.MustNewConstMetric(c.queueLength, prometheus.GaugeValue, float64(m.QueueLength))
	ch <- prometheus.MustNewConstMetric(c.activeRequests, prometheus.GaugeValue, float64(m.ActiveRequests))
	ch <- prometheus.MustNewConstMetric(c.cacheSize, prometheus.GaugeValue, float64(m.CacheSize))

	for _, state := range []HealthState{HealthUp, HealthDegraded, HealthThrottled} {
		val := 0.0
		if state == m.APIHealth {
			val = 1
		}
		ch <- prometheus.MustNewConstMetric(c.apiHealth, prometheus.GaugeValue, val, state.String())
	}
}
