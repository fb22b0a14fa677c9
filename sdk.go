// sdk.go
// ------
// The sdk.go file contains the core Governor struct and its methods.
// This is the main entry point of the SDK for users.
//
// Key functionalities include:
// - Initializing a governor with New()
// - Submitting work via Submit() / Schedule()
// - Reading and resetting metrics, clearing the result cache
// - Shutting the drain loop down with Close()
//
// One Governor is meant to be constructed at process start and handed to every call site that
// talks to the same upstream API, so that its limits are respected globally.
//
// The Governor relies on a RateLimiter and a RequestExecutor to handle admission, retries and
// backoff, ensuring consistent behavior across all callers.
package requestgovernor

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"

	"github.com/opengovern/request-governor/internal/deque"
)

const instrumentationName = "github.com/opengovern/request-governor"

type Governor struct {
	cfg        Config
	clock      clock.WithTicker
	log        logrus.FieldLogger
	tracer     trace.Tracer
	classifier Classifier

	rateLimiter *RateLimiter
	sem         *semaphore.Weighted
	cache       *resultCache
	health      *healthTracker
	metrics     counters
	executor    *RequestExecutor

	mu       sync.Mutex
	queue    *deque.Deque[*request]
	draining bool
	closed   bool
	active   int

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// Option customizes a Governor at construction time.
type Option func(*Governor)

// WithLogger replaces the default logrus logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Governor) {
		g.log = log
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.WithTicker) Option {
	return func(g *Governor) {
		g.clock = clk
	}
}

// WithTracerProvider sets where per-attempt spans are reported. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Governor) {
		g.tracer = tp.Tracer(instrumentationName)
	}
}

// WithClassifier sets the classifier used by requests that do not bring their own.
func WithClassifier(c Classifier) Option {
	return func(g *Governor) {
		g.classifier = c
	}
}

func New(cfg Config, opts ...Option) (*Governor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	g := &Governor{
		cfg:         cfg,
		clock:       clock.RealClock{},
		log:         logger.WithField("component", "request-governor"),
		tracer:      otel.GetTracerProvider().Tracer(instrumentationName),
		classifier:  ExplorerClassifier,
		rateLimiter: NewRateLimiter(cfg.SlidingWindow, cfg.MaxRequestsPerWindow),
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		health:      newHealthTracker(cfg.HealthWindow, cfg.DegradedRate, cfg.ThrottledRate),
		queue:       deque.New[*request](),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cache = newResultCache(g.clock, cfg.CacheMaxAge)
	g.executor = NewRequestExecutor(g)
	return g, nil
}

// SetDebug enables or disables debug logging when the governor's logger is a logrus logger or entry.
func (g *Governor) SetDebug(enabled bool) {
	level := logrus.InfoLevel
	if enabled {
		level = logrus.DebugLevel
	}
	switch l := g.log.(type) {
	case *logrus.Entry:
		l.Logger.SetLevel(level)
	case *logrus.Logger:
		l.SetLevel(level)
	}
}

// Submit hands an operation to the governor and returns immediately. A fresh cached result for the
// request's key settles the returned Pending at once without touching the queue.
func (g *Governor) Submit(ctx context.Context, op Operation, opts Options) *Pending {
	id := uuid.NewString()
	key := opts.effectiveCacheKey()

	if !opts.SkipCache && key != "" {
		if value, ok := g.cache.get(key); ok {
			g.metrics.update(func(m *Metrics) { m.CacheHits++ })
			g.log.WithFields(logrus.Fields{"request_id": id, "cache_key": key}).Debug("Serving request from cache")
			p := newPending(id)
			p.settle(value, nil)
			return p
		}
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier = g.classifier
	}
	req := &request{
		id:          id,
		ctx:         context.WithoutCancel(ctx),
		operation:   op,
		cacheKey:    key,
		skipCache:   opts.SkipCache,
		classifier:  classifier,
		submittedAt: g.clock.Now(),
		pending:     newPending(id),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		req.pending.settle(nil, ErrGovernorClosed)
		return req.pending
	}
	g.queue.PushBack(req)
	g.startDrainingLocked()
	g.log.WithFields(logrus.Fields{"request_id": id, "queue_length": g.queue.Len()}).Debug("Request queued")
	return req.pending
}

// Schedule submits an operation and waits for its final value. Returning early because ctx ended
// leaves the request running.
func (g *Governor) Schedule(ctx context.Context, op Operation, opts Options) (any, error) {
	return g.Submit(ctx, op, opts).Wait(ctx)
}

// GetMetrics returns a snapshot of the counters plus queue, concurrency, cache and health state.
func (g *Governor) GetMetrics() Metrics {
	m := g.metrics.snapshot()
	g.mu.Lock()
	m.QueueLength = g.queue.Len()
	m.ActiveRequests = g.active
	g.mu.Unlock()
	m.CacheSize = g.cache.len()
	m.APIHealth = g.health.current()
	return m
}

// ResetMetrics zeroes the counters. Cache, queue and health are left alone.
func (g *Governor) ResetMetrics() {
	g.metrics.reset()
}

// ClearCache drops every cached result.
func (g *Governor) ClearCache() {
	g.cache.clear()
}

// Close stops the drain loop and rejects queued requests with ErrGovernorClosed. Operations that
// are already executing finish normally.
func (g *Governor) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.stop)
	queued := g.queue.Drain()
	g.mu.Unlock()

	for _, req := range queued {
		req.pending.settle(nil, ErrGovernorClosed)
	}
	g.wg.Wait()
	g.log.WithField("rejected", len(queued)).Debug("Governor closed")
}

// startDrainingLocked launches the drain loop unless one is already running. Callers hold g.mu.
func (g *Governor) startDrainingLocked() {
	if g.draining {
		return
	}
	g.draining = true
	g.wg.Add(1)
	go g.processQueue()
}

// processQueue is the single drain loop. It dispatches the head request whenever admission allows,
// spacing dispatches by RequestInterval, and exits when the queue is empty.
func (g *Governor) processQueue() {
	defer g.wg.Done()

	for {
		g.mu.Lock()
		if g.closed || g.queue.Len() == 0 {
			g.draining = false
			g.mu.Unlock()
			return
		}

		now := g.clock.Now()
		if !g.admitLocked(now) {
			wait := g.rateLimiter.delayBeforeNextRequest(now, g.cfg.RequestInterval) + g.jitter()
			g.log.WithFields(logrus.Fields{
				"delay":        wait,
				"active":       g.active,
				"queue_length": g.queue.Len(),
			}).Debug("Admission denied, waiting")
			g.mu.Unlock()
			if !g.sleep(wait, g.wake) {
				return
			}
			continue
		}

		req, _ := g.queue.PopFront()
		g.rateLimiter.recordRequest(now)
		g.active++
		g.log.WithFields(logrus.Fields{
			"request_id": req.id,
			"queue_wait": now.Sub(req.submittedAt),
			"active":     g.active,
		}).Debug("Dispatching request")
		g.mu.Unlock()

		go g.executor.executeRequest(req)

		if !g.sleep(g.cfg.RequestInterval, nil) {
			return
		}
	}
}

// admitLocked reports whether both the sliding window and the concurrency cap allow a dispatch now,
// acquiring a concurrency slot when they do. Callers hold g.mu.
func (g *Governor) admitLocked(now time.Time) bool {
	if !g.rateLimiter.canProceed(now) {
		return false
	}
	return g.sem.TryAcquire(1)
}

// requeueFront puts a request that is due for another attempt ahead of everything queued.
func (g *Governor) requeueFront(req *request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		g.metrics.update(func(m *Metrics) { m.FailedRequests++ })
		req.pending.settle(nil, ErrGovernorClosed)
		return
	}
	g.queue.PushFront(req)
	g.startDrainingLocked()
}

// release returns a concurrency slot and nudges a waiting drain loop.
func (g *Governor) release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	g.sem.Release(1)

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// sleep waits for d, an early wake signal, or Close. It returns false only when the governor closed.
func (g *Governor) sleep(d time.Duration, wake <-chan struct{}) bool {
	if d <= 0 {
		select {
		case <-g.stop:
			return false
		default:
			return true
		}
	}
	timer := g.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C():
		return true
	case <-wake:
		return true
	case <-g.stop:
		return false
	}
}

// jitter returns a random duration in [0, BackoffJitter].
func (g *Governor) jitter() time.Duration {
	if g.cfg.BackoffJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(g.cfg.BackoffJitter) + 1))
}
