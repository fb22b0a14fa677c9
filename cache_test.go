package requestgovernor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

func TestResultCache_LazyExpiry(t *testing.T) {
	t.Parallel()
	clock := testclock.NewFakeClock(time.Now())
	c := newResultCache(clock, 30*time.Second)

	c.set("addr1", "value")
	clock.Step(29 * time.Second)
	got, ok := c.get("addr1")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	clock.Step(time.Second)
	assert.Equal(t, 1, c.len(), "expired entries stay until a lookup finds them")
	_, ok = c.get("addr1")
	assert.False(t, ok, "an entry at maxAge should be stale")
	assert.Zero(t, c.len(), "the stale lookup should have evicted the entry")
}

func TestResultCache_Clear(t *testing.T) {
	t.Parallel()
	c := newResultCache(testclock.NewFakeClock(time.Now()), time.Minute)
	for _, k := range []string{"a", "b", "c"} {
		c.set(k, k)
	}
	require.Equal(t, 3, c.len())
	c.clear()
	assert.Zero(t, c.len())
	_, ok := c.get("a")
	assert.False(t, ok)
}
