package requestgovernor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testclock "k8s.io/utils/clock/testing"
)

func TestRateLimiter_CanProceed(t *testing.T) {
	t.Parallel()
	clock := testclock.NewFakeClock(time.Now())
	r := NewRateLimiter(time.Second, 2)

	assert.True(t, r.canProceed(clock.Now()), "an empty window should admit")
	r.recordRequest(clock.Now())
	clock.Step(100 * time.Millisecond)
	r.recordRequest(clock.Now())
	assert.False(t, r.canProceed(clock.Now()), "a full window should deny")

	clock.Step(900 * time.Millisecond)
	assert.True(t, r.canProceed(clock.Now()), "the first dispatch should have left the window")
	r.recordRequest(clock.Now())
	assert.False(t, r.canProceed(clock.Now()), "the second dispatch is still inside the window")

	clock.Step(time.Second)
	assert.True(t, r.canProceed(clock.Now()))
	assert.Equal(t, time.Second, r.delayBeforeNextRequest(clock.Now(), 500*time.Millisecond),
		"once pruned, the oldest dispatch counts as now")
}

func TestRateLimiter_DelayBeforeNextRequest(t *testing.T) {
	t.Parallel()
	clock := testclock.NewFakeClock(time.Now())
	interval := 500 * time.Millisecond

	r := NewRateLimiter(time.Second, 1)
	assert.Equal(t, time.Second, r.delayBeforeNextRequest(clock.Now(), interval),
		"with no history the oldest dispatch counts as now")

	r.recordRequest(clock.Now())
	clock.Step(300 * time.Millisecond)
	assert.Equal(t, 700*time.Millisecond, r.delayBeforeNextRequest(clock.Now(), interval))

	clock.Step(500 * time.Millisecond)
	assert.Equal(t, interval, r.delayBeforeNextRequest(clock.Now(), interval),
		"the wait should never drop below the request interval")
}
