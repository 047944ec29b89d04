package pipeline

import (
	"errors"
	"sync"
)

// ErrClosed is returned by BoundedQueue.Push after Close. Producers treat it
// as a shutdown signal, not a failure.
var ErrClosed = errors.New("pipeline: queue closed")

// BoundedQueue is a fixed-capacity blocking FIFO used as the staging buffer
// between pipeline stages. Push blocks while the queue is full, Pop blocks
// while it is empty, so a slow consumer back-pressures its producer and peak
// memory stays bounded by the capacity.
//
// Close is idempotent and may be called from any goroutine: pending items
// remain poppable (nothing is lost between Close and drain), blocked pushers
// are released with ErrClosed, and once the queue drains every Pop reports
// end-of-stream.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf    []T // ring buffer, len(buf) == capacity
	head   int
	count  int
	closed bool
}

// NewBoundedQueue returns a queue with the given capacity. Capacity must be
// at least 1.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &BoundedQueue[T]{buf: make([]T, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends item, blocking while the queue is at capacity. It returns
// ErrClosed if the queue has been closed (including while blocked).
func (q *BoundedQueue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.buf) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrClosed
	}

	q.buf[(q.head+q.count)%len(q.buf)] = item
	q.count++
	q.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest item, blocking while the queue is empty
// and open. ok is false only at end-of-stream: the queue is closed and fully
// drained.
func (q *BoundedQueue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		// closed and drained
		var zero T
		return zero, false
	}

	item = q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // drop the reference for GC
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.notFull.Signal()
	return item, true
}

// Close marks the queue closed and wakes every blocked producer and
// consumer. Safe to call more than once.
func (q *BoundedQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len reports the current occupancy. Intended for tests and diagnostics.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap reports the fixed capacity.
func (q *BoundedQueue[T]) Cap() int { return len(q.buf) }
