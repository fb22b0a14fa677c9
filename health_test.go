package requestgovernor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testclock "k8s.io/utils/clock/testing"
)

func TestHealthTracker_Evaluate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		hits int
		want HealthState
	}{
		{name: "no hits", hits: 0, want: HealthUp},
		{name: "at degraded threshold", hits: 12, want: HealthUp},
		{name: "above degraded threshold", hits: 13, want: HealthDegraded},
		{name: "at throttled threshold", hits: 30, want: HealthDegraded},
		{name: "above throttled threshold", hits: 31, want: HealthThrottled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			clock := testclock.NewFakeClock(time.Now())
			h := newHealthTracker(time.Minute, 0.2, 0.5)
			for i := 0; i < tc.hits; i++ {
				h.recordRateLimit(clock.Now())
			}
			assert.Equal(t, tc.want, h.evaluate(clock.Now()))
			assert.Equal(t, tc.want, h.current())
		})
	}
}

func TestHealthTracker_ForcedThrottleDecays(t *testing.T) {
	t.Parallel()
	clock := testclock.NewFakeClock(time.Now())
	h := newHealthTracker(time.Minute, 0.2, 0.5)

	h.recordRateLimit(clock.Now())
	assert.Equal(t, HealthThrottled, h.current(), "a fresh hit should force THROTTLED immediately")
	assert.Equal(t, HealthUp, h.evaluate(clock.Now()), "a single hit per minute is healthy once evaluated")

	for i := 0; i < 40; i++ {
		h.recordRateLimit(clock.Now())
	}
	assert.Equal(t, HealthThrottled, h.evaluate(clock.Now()))

	clock.Step(time.Minute)
	assert.Equal(t, HealthUp, h.evaluate(clock.Now()), "hits older than the window should no longer count")
}

func TestHealthState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "UP", HealthUp.String())
	assert.Equal(t, "DEGRADED", HealthDegraded.String())
	text, err := HealthThrottled.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "THROTTLED", string(text))
}
