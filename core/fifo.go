package core

import "sync"

// fifo is an unbounded queue written by the worker loop and drained by
// the host's consumer goroutine. A channel is the wrong shape here: the
// consumer must pop a bounded batch without blocking and the producer
// must never stall on a slow host.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// popN removes and returns up to n items in insertion order. n <= 0
// pops everything.
func (q *fifo[T]) popN(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	if n <= 0 || n > len(q.items) {
		n = len(q.items)
	}

	out := q.items[:n:n]
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return out
}

func (q *fifo[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
