// Package pipeline implements the concurrent streaming core of the filter:
// a sequenced line source, a bounded work queue, a pool of transform workers
// gated on one-time schema resolution, a resequencer that restores input
// order, and an ordered sink.
//
// Design goals:
//   - No whole-file buffering; memory stays O(queue capacity + workers)
//     regardless of input size.
//   - Output order equals input order even though workers complete out of
//     order (sequence tags at ingress, holdback reorder at egress).
//   - No data line is transformed before the schema line has been fully
//     resolved (one-shot barrier).
//   - Fatal errors shut the stages down cooperatively: queues are closed so
//     every stage observes end-of-stream instead of hanging, and the first
//     error wins.
package pipeline

// Kind classifies a line popped from the source.
type Kind uint8

const (
	// KindHeader is a pass-through comment line; it is never transformed.
	KindHeader Kind = iota
	// KindSchema is the single line the transform parameters are derived
	// from. Exactly one record per run carries this kind.
	KindSchema
	// KindData is an ordinary line transformed by the worker pool.
	KindData
)

// String returns a short label for logging.
func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindSchema:
		return "schema"
	case KindData:
		return "data"
	}
	return "unknown"
}

// Record is one line moving through the pipeline. Seq is assigned by the
// source in strict read order starting at 0 and is never reused; the
// resequencer relies on the sequence being gap-free. Records are treated as
// immutable: a stage hands the record to the next stage and keeps no
// reference.
type Record struct {
	Seq     uint64
	Payload string
	Kind    Kind
}
