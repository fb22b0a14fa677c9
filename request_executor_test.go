package requestgovernor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestExecutor_CalculateBackoff(t *testing.T) {
	t.Parallel()
	g, err := New(DefaultConfig())
	require.NoError(t, err)
	defer g.Close()

	testCases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 800 * time.Millisecond},
		{attempt: 1, want: 800 * time.Millisecond},
		{attempt: 2, want: 1600 * time.Millisecond},
		{attempt: 3, want: 3200 * time.Millisecond},
		{attempt: 10, want: 30 * time.Second},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, g.executor.calculateBackoff(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestGovernor_JitterBounds(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.BackoffJitter = 5 * time.Millisecond
	g, err := New(cfg)
	require.NoError(t, err)
	defer g.Close()

	for i := 0; i < 200; i++ {
		j := g.jitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.LessOrEqual(t, j, 5*time.Millisecond)
	}

	g.cfg.BackoffJitter = 0
	assert.Zero(t, g.jitter())
}

func TestOptions_EffectiveCacheKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "addr1", Options{CacheKey: "addr1", Params: map[string]string{"a": "b"}}.effectiveCacheKey())
	assert.Empty(t, Options{}.effectiveCacheKey(), "no key and no params disables caching")

	a := Options{Params: map[string]string{"module": "account", "address": "0x1"}}.effectiveCacheKey()
	b := Options{Params: map[string]string{"address": "0x1", "module": "account"}}.effectiveCacheKey()
	assert.Equal(t, a, b, "derived keys should not depend on map order")
	assert.Equal(t, `params:{"address":"0x1","module":"account"}`, a)
}

func TestCounters_RecordSuccessAveragesLatency(t *testing.T) {
	t.Parallel()
	var c counters
	c.recordSuccess(100*time.Millisecond, false)
	c.recordSuccess(300*time.Millisecond, true)

	m := c.snapshot()
	assert.Equal(t, uint64(2), m.SuccessfulRequests)
	assert.Equal(t, uint64(1), m.EmptyResults)
	assert.Equal(t, 200*time.Millisecond, m.AverageLatency)

	c.reset()
	assert.Equal(t, Metrics{}, c.snapshot())
}

func TestGovernor_RequeueAfterCloseCountsFailure(t *testing.T) {
	t.Parallel()
	g, err := New(DefaultConfig())
	require.NoError(t, err)
	g.Close()

	req := &request{id: "late-retry", attempts: 1, pending: newPending("late-retry")}
	g.requeueFront(req)

	_, err = req.pending.Result()
	assert.ErrorIs(t, err, ErrGovernorClosed)
	assert.Equal(t, uint64(1), g.GetMetrics().FailedRequests)
	assert.Zero(t, g.GetMetrics().QueueLength)
}
