// Package deque provides a double-ended FIFO built on the standard library's container/list.
// It is not safe for concurrent use; callers serialize access with their own lock.
package deque

import "container/list"

// Deque holds items in arrival order and lets priority items jump to the front.
type Deque[T any] struct {
	items *list.List
}

// New creates an empty Deque.
func New[T any]() *Deque[T] {
	return &Deque[T]{items: list.New()}
}

// PushBack appends an item to the tail.
func (d *Deque[T]) PushBack(item T) {
	d.items.PushBack(item)
}

// PushFront inserts an item at the head, ahead of everything already queued.
func (d *Deque[T]) PushFront(item T) {
	d.items.PushFront(item)
}

// PopFront removes and returns the head item. ok is false when the deque is empty.
func (d *Deque[T]) PopFront() (item T, ok bool) {
	e := d.items.Front()
	if e == nil {
		return item, false
	}
	d.items.Remove(e)
	return e.Value.(T), true
}

// Drain removes all items and returns them in queue order.
func (d *Deque[T]) Drain() []T {
	drained := make([]T, 0, d.items.Len())
	for e := d.items.Front(); e != nil; e = e.Next() {
		drained = append(drained, e.Value.(T))
	}
	d.items.Init()
	return drained
}

// Len returns the number of queued items.
func (d *Deque[T]) Len() int {
	return d.items.Len()
}
