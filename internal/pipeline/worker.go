package pipeline

import (
	"context"
	"sync/atomic"
)

// counters holds cross-goroutine statistics for a run. All fields are
// updated atomically by the workers and read once after the stages join.
type counters struct {
	lines     atomic.Int64 // records completed by workers (all kinds)
	headers   atomic.Int64 // pass-through comment lines
	data      atomic.Int64 // transformed data lines
	malformed atomic.Int64 // data lines passed through unmodified (too few fields)
}

// worker is one member of the transform pool. It pops sequenced records from
// the raw queue, applies the transform (blocking on the schema gate for data
// records until resolution commits), and hands results to the resequencer
// with the original sequence intact.
//
// Per-record trouble is fail-soft: a line that cannot be projected goes
// through unchanged and is counted. Only schema resolution failure is fatal
// here; returning the error cancels the group context and the coordinator
// closes the queues to unwind the remaining stages.
type worker struct {
	in        *BoundedQueue[Record]
	reseq     *Resequencer
	gate      *schemaGate
	transform Transformer
	stats     *counters

	progressEvery int64
	progress      func(int64)
}

func (w *worker) run(ctx context.Context) error {
	for {
		rec, ok := w.in.Pop()
		if !ok {
			return nil
		}

		out := rec
		switch rec.Kind {
		case KindHeader:
			w.stats.headers.Add(1)

		case KindSchema:
			line, err := w.gate.resolve(w.transform, rec.Payload)
			if err != nil {
				return err
			}
			out.Payload = line

		case KindData:
			if err := w.gate.await(ctx); err != nil {
				return err
			}
			line, projected := w.transform.Apply(rec.Payload)
			if !projected {
				w.stats.malformed.Add(1)
			}
			out.Payload = line
			w.stats.data.Add(1)
		}

		if err := w.reseq.Accept(out); err != nil {
			// Outbound queue closed: shutdown already in progress.
			return ctx.Err()
		}

		n := w.stats.lines.Add(1)
		if w.progress != nil && w.progressEvery > 0 && n%w.progressEvery == 0 {
			w.progress(n)
		}
	}
}
