package deque

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeque_FIFOOrder(t *testing.T) {
	t.Parallel()
	d := New[string]()
	d.PushBack("a")
	d.PushBack("b")
	d.PushBack("c")
	require.Equal(t, 3, d.Len())

	for _, want := range []string{"a", "b", "c"} {
		got, ok := d.PopFront()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := d.PopFront()
	assert.False(t, ok, "PopFront on an empty deque should report false")
}

func TestDeque_PushFrontJumpsQueue(t *testing.T) {
	t.Parallel()
	d := New[int]()
	d.PushBack(1)
	d.PushBack(2)
	d.PushFront(0)

	assert.Equal(t, []int{0, 1, 2}, d.Drain())
	assert.Zero(t, d.Len(), "Drain should leave the deque empty")
}

func TestDeque_EmptyDrain(t *testing.T) {
	t.Parallel()
	d := New[*struct{}]()
	item, ok := d.PopFront()
	assert.False(t, ok)
	assert.Nil(t, item)
	assert.Empty(t, d.Drain())
}
