package pipeline

import "sync"

// Resequencer restores strict sequence order on worker output. Workers
// complete records out of order; Accept emits them downstream in exactly the
// order the source issued them (0, 1, 2, ... with no gaps or duplicates),
// holding early arrivals in a map keyed by sequence.
//
// The holdback is bounded by the window: Accept blocks a record that runs
// more than window sequences ahead of the next expected one until the
// laggard catches up. The pipeline sizes the window to the number of
// in-flight records (workers plus queue capacity), so one slow worker
// back-pressures the fast ones instead of letting the map grow with the
// input. The raw queue is FIFO, so the record carrying the next expected
// sequence is always already held by some worker and is never itself
// window-blocked; progress is guaranteed for any window of at least one.
//
// Accept is safe for concurrent use. The emitting worker keeps the lock
// while pushing downstream; when the outbound queue is full that worker
// blocks and the others queue up on the mutex behind it, which is exactly
// the back-pressure the stage needs.
type Resequencer struct {
	mu      sync.Mutex
	mayPass *sync.Cond

	window   uint64
	next     uint64
	holdback map[uint64]Record
	out      *BoundedQueue[Record]
	closed   bool
}

// NewResequencer returns a resequencer emitting into out, starting at
// sequence 0. window caps how far ahead of the next expected sequence an
// accepted record may run; minimum 1.
func NewResequencer(out *BoundedQueue[Record], window int) *Resequencer {
	if window < 1 {
		window = 1
	}
	r := &Resequencer{
		window:   uint64(window),
		holdback: make(map[uint64]Record),
		out:      out,
	}
	r.mayPass = sync.NewCond(&r.mu)
	return r
}

// Accept takes a completed record. A record more than window sequences ahead
// blocks until the expected sequence advances. If it is the next expected
// sequence it is emitted immediately, followed by any now-contiguous run
// from the holdback; otherwise it is held back. Accept returns ErrClosed
// when the stage has been shut down, which callers treat as cancellation.
func (r *Resequencer) Accept(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.closed && rec.Seq >= r.next+r.window {
		r.mayPass.Wait()
	}
	if r.closed {
		return ErrClosed
	}

	if rec.Seq != r.next {
		r.holdback[rec.Seq] = rec
		return nil
	}

	if err := r.out.Push(rec); err != nil {
		return err
	}
	r.next++

	// Drain the contiguous run that this record unblocked.
	for {
		held, ok := r.holdback[r.next]
		if !ok {
			break
		}
		delete(r.holdback, r.next)
		if err := r.out.Push(held); err != nil {
			return err
		}
		r.next++
	}

	r.mayPass.Broadcast()
	return nil
}

// Close releases every Accept blocked on the window with ErrClosed. Called
// on shutdown so workers unwind instead of waiting for a sequence that will
// never arrive. Safe to call more than once.
func (r *Resequencer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.mayPass.Broadcast()
}

// Pending reports the holdback occupancy. Intended for tests and the bounded
// memory checks.
func (r *Resequencer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holdback)
}
