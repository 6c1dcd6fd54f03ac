package world

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO safe for concurrent use. Push never blocks.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0, 64),
		ready: make(chan struct{}),
	}
}

// Push appends item. Pushing to a closed queue drops the item and reports
// false.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	close(q.ready)
	q.ready = make(chan struct{})
	return true
}

// TryPop removes the first item without waiting.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

func (q *Queue[T]) pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Pop waits for an item. It returns ctx.Err() once ctx is done and
// ErrClosed once the queue is closed and drained.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if item, ok := q.pop(); ok {
			q.mu.Unlock()
			return item, nil
		}
		closed, ready := q.closed, q.ready
		q.mu.Unlock()

		var zero T
		if closed {
			return zero, ErrClosed
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ready:
		}
	}
}

// Close wakes all waiters. Items already queued can still be popped.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

// Clear drops every queued item and returns them.
func (q *Queue[T]) Clear() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = make([]T, 0, 64)
	return items
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// UniqueQueue is a FIFO of keys in which each key appears at most once.
type UniqueQueue[K comparable] struct {
	mu      sync.Mutex
	items   []K
	present map[K]bool
}

func NewUniqueQueue[K comparable]() *UniqueQueue[K] {
	return &UniqueQueue[K]{
		items:   make([]K, 0, 64),
		present: make(map[K]bool),
	}
}

// Push appends key unless it is already queued. It reports whether the key
// was added.
func (q *UniqueQueue[K]) Push(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.present[key] {
		return false
	}
	q.items = append(q.items, key)
	q.present[key] = true
	return true
}

func (q *UniqueQueue[K]) Pop() (K, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero K
	if len(q.items) == 0 {
		return zero, false
	}
	key := q.items[0]
	q.items = q.items[1:]
	delete(q.present, key)
	return key, true
}

// Remove drops key from the queue if present.
func (q *UniqueQueue[K]) Remove(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.present[key] {
		return false
	}
	delete(q.present, key)
	for i, k := range q.items {
		if k == key {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	return true
}

func (q *UniqueQueue[K]) Contains(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.present[key]
}

func (q *UniqueQueue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *UniqueQueue[K]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
	q.present = make(map[K]bool)
}
