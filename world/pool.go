package world

import "sync"

// Pool is a free list safe for concurrent use. Taking from an empty pool
// never blocks.
type Pool[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewPool[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Get returns a pooled item if there is one.
func (p *Pool[T]) Get() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	n := len(p.items)
	if n == 0 {
		return zero, false
	}
	item := p.items[n-1]
	p.items[n-1] = zero
	p.items = p.items[:n-1]
	return item, true
}

// Take returns a pooled item or one built by newFn.
func (p *Pool[T]) Take(newFn func() T) T {
	if item, ok := p.Get(); ok {
		return item
	}
	return newFn()
}

func (p *Pool[T]) Put(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
}

func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Drain empties the pool.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}
