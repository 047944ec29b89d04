package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSchema is the fatal error used when the stream ends (or aborts)
// before a schema line was seen while data lines are waiting to be
// transformed.
var ErrNoSchema = errors.New("pipeline: schema line not found before end of stream")

// Transformer is the business transform plugged into the worker pool. The
// pipeline itself is format-agnostic: it only knows that one designated line
// carries the transform parameters and that every other data line is
// rewritten with them.
//
// Resolve is called exactly once, by whichever worker pops the schema
// record, before any Apply call is allowed to proceed; the gate gives Apply
// a happens-before edge on everything Resolve wrote. Resolve returns the
// rewritten schema line for the output. Apply returns the rewritten data
// line; ok=false means the line could not be projected (for example too few
// fields) and was returned unchanged.
type Transformer interface {
	Resolve(line string) (string, error)
	Apply(line string) (out string, ok bool)
}

// schemaGate is the one-shot barrier between schema resolution and data
// transformation. Exactly one caller resolves; everyone else waits. The
// ready channel close publishes the transformer's schema state to all
// workers.
type schemaGate struct {
	once  sync.Once
	ready chan struct{}
	err   error // written before close(ready), read after
}

func newSchemaGate() *schemaGate {
	return &schemaGate{ready: make(chan struct{})}
}

// resolve runs t.Resolve under the gate's once and publishes the outcome.
// The rewritten schema line is returned to the resolving worker; a non-nil
// error is fatal for the whole run and is also observed by every waiter.
//
// A second call (there is never one in practice: the source emits a single
// schema record) returns the stored outcome without resolving again.
func (g *schemaGate) resolve(t Transformer, line string) (string, error) {
	var out string
	g.once.Do(func() {
		out, g.err = t.Resolve(line)
		close(g.ready)
	})
	return out, g.err
}

// fail publishes err without resolving. Used by the source when the stream
// ends with no schema line, so data workers blocked on await do not hang.
// A no-op if the gate already resolved.
func (g *schemaGate) fail(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.ready)
	})
}

// await blocks until the gate is resolved (or failed) or ctx is done. A
// worker holding a data record must call await before Apply.
func (g *schemaGate) await(ctx context.Context) error {
	select {
	case <-g.ready:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
