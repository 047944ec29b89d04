package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

// Defaults mirror the knobs of the single-machine filter this pipeline was
// built for: staging queues of 1000 records and a progress tick every 10k
// lines.
const (
	DefaultQueueCap      = 1000
	DefaultProgressEvery = 10_000
)

// Config carries the collaborator pieces for one run. Source and Sink are
// already-resolved byte streams (plain or transparently (de)compressed);
// opening and closing them is the caller's job.
type Config struct {
	// Source yields the input lines. Required.
	Source io.Reader
	// Sink receives the transformed lines in input order. Required.
	Sink io.Writer
	// Transform derives its parameters from the schema line and rewrites
	// data lines. Required.
	Transform Transformer

	// IsSchema reports whether a line is the schema line. Only the first
	// match is classified as schema. Required.
	IsSchema func(string) bool
	// IsComment reports whether a line is a pass-through comment. Required.
	IsComment func(string) bool

	// Workers is the transform pool size; minimum 1.
	Workers int
	// QueueCap bounds each staging queue; DefaultQueueCap when zero.
	QueueCap int

	// Progress, when set, is called every ProgressEvery completed records
	// with the running total. Advisory only; it runs on a worker goroutine
	// and must be cheap and concurrency-safe.
	Progress      func(n int64)
	ProgressEvery int64
}

// Summary reports what a successful run did.
type Summary struct {
	Lines     int64 // records read and emitted
	Headers   int64 // pass-through comment lines
	Data      int64 // data lines through the transform
	Malformed int64 // data lines passed through unmodified
	Checksum  string
	Elapsed   time.Duration
}

// Run executes the pipeline: source → raw queue → worker pool (gated on
// schema resolution) → resequencer → ordered queue → sink. It blocks until
// every stage has joined and returns the first fatal error, if any.
//
// Shutdown protocol: the source closes the raw queue at end of input, the
// coordinator closes the ordered queue once all workers returned, and the
// sink drains it to end-of-stream. On a fatal error the group context
// cancels and the queues and resequencer are force-closed, so blocked stages
// unwind instead of hanging; no record is emitted twice and order is
// preserved for everything already emitted.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.Source == nil || cfg.Sink == nil || cfg.Transform == nil {
		return Summary{}, fmt.Errorf("pipeline: source, sink, and transform are required")
	}
	if cfg.IsSchema == nil || cfg.IsComment == nil {
		return Summary{}, fmt.Errorf("pipeline: line classifiers are required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueCap <= 0 {
		cfg.QueueCap = DefaultQueueCap
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}

	start := time.Now()

	rawQ := NewBoundedQueue[Record](cfg.QueueCap)
	orderedQ := NewBoundedQueue[Record](cfg.QueueCap)
	// The reorder window is the worst-case in-flight count: one record per
	// worker plus a full raw queue. Holdback memory stays O(window) no
	// matter how long one Apply stalls.
	reseq := NewResequencer(orderedQ, cfg.Workers+cfg.QueueCap)
	gate := newSchemaGate()

	var stats counters

	g, ctx := errgroup.WithContext(ctx)

	// Cancellation watchdog: when the group context dies (fatal error or
	// caller cancel), force-close the queues and the resequencer so blocked
	// pushes, pops, and window waits return. Close is idempotent, so the
	// normal-path closes stay safe.
	go func() {
		<-ctx.Done()
		rawQ.Close()
		reseq.Close()
		orderedQ.Close()
	}()

	// Source.
	src := &lineSource{
		r:         cfg.Source,
		out:       rawQ,
		gate:      gate,
		isSchema:  cfg.IsSchema,
		isComment: cfg.IsComment,
	}
	g.Go(src.run)

	// Worker pool; the ordered queue closes only after the whole pool has
	// drained so the sink never sees a premature end-of-stream.
	g.Go(func() error {
		pool, poolCtx := errgroup.WithContext(ctx)
		for i := 0; i < cfg.Workers; i++ {
			w := &worker{
				in:            rawQ,
				reseq:         reseq,
				gate:          gate,
				transform:     cfg.Transform,
				stats:         &stats,
				progressEvery: cfg.ProgressEvery,
				progress:      cfg.Progress,
			}
			pool.Go(func() error { return w.run(poolCtx) })
		}
		err := pool.Wait()
		orderedQ.Close()
		return err
	})

	// Sink.
	sink := newLineSink(cfg.Sink, orderedQ)
	g.Go(sink.run)

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Lines:     stats.lines.Load(),
		Headers:   stats.headers.Load(),
		Data:      stats.data.Load(),
		Malformed: stats.malformed.Load(),
		Checksum:  sink.checksum(),
		Elapsed:   time.Since(start),
	}, nil
}
