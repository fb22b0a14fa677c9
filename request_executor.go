package requestgovernor

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RequestExecutor runs admitted requests and owns the retry and backoff policy.
type RequestExecutor struct {
	g *Governor
}

func NewRequestExecutor(g *Governor) *RequestExecutor {
	return &RequestExecutor{g: g}
}

// executeRequest runs one attempt of an admitted request. The drain loop has already taken a
// concurrency slot and recorded the dispatch in the sliding window; the slot is returned exactly
// once, after the request is settled or requeued.
func (re *RequestExecutor) executeRequest(req *request) {
	g := re.g
	defer g.release()

	req.attempts++
	g.metrics.update(func(m *Metrics) { m.TotalRequests++ })
	log := g.log.WithFields(logrus.Fields{"request_id": req.id, "attempt": req.attempts})
	log.Debug("Sending request")

	ctx, span := g.tracer.Start(req.ctx, "requestgovernor.attempt", trace.WithAttributes(
		attribute.String("request.id", req.id),
		attribute.Int("request.attempt", req.attempts),
	))
	start := g.clock.Now()
	value, err := req.operation(ctx)
	latency := g.clock.Since(start)

	var outcome Outcome
	switch {
	case err != nil && errors.Is(err, ErrRateLimited):
		outcome = OutcomeRateLimited
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		g.metrics.update(func(m *Metrics) { m.FailedRequests++ })
		g.health.evaluate(g.clock.Now())
		log.WithError(err).Debug("Operation failed, not retrying")
		req.pending.settle(nil, err)
		return
	default:
		outcome = req.classifier.Classify(value)
	}
	span.SetAttributes(attribute.String("request.outcome", outcome.String()))
	span.End()

	if outcome == OutcomeRateLimited {
		re.handleRateLimit(req, err, log)
		return
	}

	if !req.skipCache && req.cacheKey != "" {
		g.cache.set(req.cacheKey, value)
	}
	g.metrics.recordSuccess(latency, outcome == OutcomeEmpty)
	g.health.evaluate(g.clock.Now())

	if req.attempts > 1 {
		log.Debugf("Request succeeded after %d attempts", req.attempts)
	} else {
		log.WithField("empty", outcome == OutcomeEmpty).Debug("Request succeeded on first attempt")
	}
	req.pending.settle(value, nil)
}

// handleRateLimit either schedules another attempt at the head of the queue after a backoff, or
// rejects the request once MaxAttempts is spent.
func (re *RequestExecutor) handleRateLimit(req *request, cause error, log logrus.FieldLogger) {
	g := re.g
	g.metrics.update(func(m *Metrics) { m.RateLimitHits++ })
	g.health.recordRateLimit(g.clock.Now())

	if req.attempts < g.cfg.MaxAttempts {
		wait := re.calculateBackoff(req.attempts) + g.jitter()
		log.WithField("delay", wait).Debugf("Rate limited. Backing off before retry (attempt %d/%d)", req.attempts, g.cfg.MaxAttempts)
		if !g.sleep(wait, nil) {
			g.metrics.update(func(m *Metrics) { m.FailedRequests++ })
			req.pending.settle(nil, ErrGovernorClosed)
			return
		}
		g.requeueFront(req)
		return
	}

	if cause == nil {
		cause = ErrRateLimited
	}
	g.metrics.update(func(m *Metrics) { m.FailedRequests++ })
	log.Warn("Rate limit encountered and max attempts reached. Giving up.")
	req.pending.settle(nil, errors.WithMessagef(cause, "request %s gave up after %d attempts", req.id, req.attempts))
}

// calculateBackoff returns BackoffBase * BackoffMultiplier^(attempt-1), capped at MaxBackoff.
func (re *RequestExecutor) calculateBackoff(attempt int) time.Duration {
	cfg := re.g.cfg
	if attempt < 1 {
		attempt = 1
	}
	backoff := time.Duration(float64(cfg.BackoffBase) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1)))
	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	return backoff
}
