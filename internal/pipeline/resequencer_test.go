package pipeline

import (
	"math/rand"
	"sync"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Resequencer tests
// -----------------------------------------------------------------------------

// popAll drains out (which must already be closed, or get closed by another
// goroutine) and returns the emitted records in order.
func popAll(out *BoundedQueue[Record]) []Record {
	var recs []Record
	for {
		r, ok := out.Pop()
		if !ok {
			return recs
		}
		recs = append(recs, r)
	}
}

func TestResequencer_InOrderPassThrough(t *testing.T) {
	t.Parallel()

	out := NewBoundedQueue[Record](16)
	rs := NewResequencer(out, 16)

	for i := uint64(0); i < 5; i++ {
		if err := rs.Accept(Record{Seq: i}); err != nil {
			t.Fatalf("Accept(%d): %v", i, err)
		}
	}
	out.Close()

	recs := popAll(out)
	if len(recs) != 5 {
		t.Fatalf("emitted %d records; want 5", len(recs))
	}
	for i, r := range recs {
		if r.Seq != uint64(i) {
			t.Fatalf("recs[%d].Seq = %d; want %d", i, r.Seq, i)
		}
	}
	if got := rs.Pending(); got != 0 {
		t.Fatalf("Pending = %d; want 0", got)
	}
}

func TestResequencer_ReordersOutOfOrderCompletions(t *testing.T) {
	t.Parallel()

	out := NewBoundedQueue[Record](16)
	rs := NewResequencer(out, 16)

	// 2 and 1 arrive early and must be held back.
	for _, seq := range []uint64{2, 1} {
		if err := rs.Accept(Record{Seq: seq}); err != nil {
			t.Fatalf("Accept(%d): %v", seq, err)
		}
	}
	if got := out.Len(); got != 0 {
		t.Fatalf("emitted %d records before seq 0 arrived; want 0", got)
	}
	if got := rs.Pending(); got != 2 {
		t.Fatalf("Pending = %d; want 2", got)
	}

	// 0 unblocks the whole contiguous run.
	if err := rs.Accept(Record{Seq: 0}); err != nil {
		t.Fatalf("Accept(0): %v", err)
	}
	out.Close()

	recs := popAll(out)
	for i, r := range recs {
		if r.Seq != uint64(i) {
			t.Fatalf("recs[%d].Seq = %d; want %d", i, r.Seq, i)
		}
	}
	if len(recs) != 3 {
		t.Fatalf("emitted %d records; want 3", len(recs))
	}
}

// TestResequencer_RandomPermutation feeds a random shuffle of a larger
// sequence from several goroutines and asserts the output is exactly 0..n-1.
// The window is the full sequence because a shuffled feed, unlike the FIFO
// raw queue, gives no ordering guarantee the window could lean on.
func TestResequencer_RandomPermutation(t *testing.T) {
	t.Parallel()

	const n = 2000
	out := NewBoundedQueue[Record](64)
	rs := NewResequencer(out, n)

	seqs := rand.Perm(n)

	var wg sync.WaitGroup
	const workers = 8
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += workers {
				if err := rs.Accept(Record{Seq: uint64(seqs[i])}); err != nil {
					t.Errorf("Accept: %v", err)
					return
				}
			}
		}(w)
	}
	go func() {
		wg.Wait()
		out.Close()
	}()

	recs := popAll(out)
	if len(recs) != n {
		t.Fatalf("emitted %d records; want %d", len(recs), n)
	}
	for i, r := range recs {
		if r.Seq != uint64(i) {
			t.Fatalf("recs[%d].Seq = %d; want %d (gap or duplicate)", i, r.Seq, i)
		}
	}
}

func TestResequencer_WindowBlocksRunawayRecord(t *testing.T) {
	t.Parallel()

	out := NewBoundedQueue[Record](16)
	rs := NewResequencer(out, 4)

	// Seq 4 is exactly one window ahead of next=0 and must wait.
	passed := make(chan struct{})
	go func() {
		if err := rs.Accept(Record{Seq: 4}); err != nil {
			t.Errorf("Accept(4): %v", err)
		}
		close(passed)
	}()

	select {
	case <-passed:
		t.Fatal("Accept(4) returned while the window was exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	// Emitting seq 0 advances the window and releases it.
	if err := rs.Accept(Record{Seq: 0}); err != nil {
		t.Fatalf("Accept(0): %v", err)
	}
	select {
	case <-passed:
	case <-time.After(time.Second):
		t.Fatal("Accept(4) not released after the window advanced")
	}
}

// TestResequencer_HoldbackStaysWithinWindow withholds sequence 0 while many
// later completions pour in from several goroutines and verifies the
// holdback occupancy never exceeds the window, no matter how many records
// follow the laggard.
func TestResequencer_HoldbackStaysWithinWindow(t *testing.T) {
	t.Parallel()

	const (
		window  = 16
		n       = 400
		feeders = 4
	)
	out := NewBoundedQueue[Record](n + 1)
	rs := NewResequencer(out, window)

	var wg sync.WaitGroup
	wg.Add(feeders)
	for f := 0; f < feeders; f++ {
		go func(f int) {
			defer wg.Done()
			// Each feeder works through its stripe in increasing order,
			// like workers draining a FIFO queue.
			for seq := uint64(f + 1); seq < n; seq += feeders {
				if err := rs.Accept(Record{Seq: seq}); err != nil {
					t.Errorf("Accept(%d): %v", seq, err)
					return
				}
			}
		}(f)
	}

	// While 0 is withheld nothing can drain; sample the occupancy.
	var maxPending int
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if p := rs.Pending(); p > maxPending {
			maxPending = p
		}
		time.Sleep(time.Millisecond)
	}
	if maxPending >= window {
		t.Fatalf("holdback reached %d records; window is %d", maxPending, window)
	}

	// Releasing the laggard lets everything through in order.
	if err := rs.Accept(Record{Seq: 0}); err != nil {
		t.Fatalf("Accept(0): %v", err)
	}
	wg.Wait()
	out.Close()

	recs := popAll(out)
	if len(recs) != n {
		t.Fatalf("emitted %d records; want %d", len(recs), n)
	}
	for i, r := range recs {
		if r.Seq != uint64(i) {
			t.Fatalf("recs[%d].Seq = %d; want %d", i, r.Seq, i)
		}
	}
}

func TestResequencer_CloseReleasesWindowWaiter(t *testing.T) {
	t.Parallel()

	out := NewBoundedQueue[Record](16)
	rs := NewResequencer(out, 2)

	errCh := make(chan error, 1)
	go func() { errCh <- rs.Accept(Record{Seq: 10}) }()

	time.Sleep(20 * time.Millisecond)
	rs.Close()

	select {
	case err := <-errCh:
		if err != ErrClosed {
			t.Fatalf("window-blocked Accept after Close = %v; want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("window-blocked Accept not released by Close")
	}
}

func TestResequencer_AcceptOnClosedQueue(t *testing.T) {
	t.Parallel()

	out := NewBoundedQueue[Record](4)
	rs := NewResequencer(out, 4)
	out.Close()

	if err := rs.Accept(Record{Seq: 0}); err != ErrClosed {
		t.Fatalf("Accept on closed queue = %v; want ErrClosed", err)
	}
}
