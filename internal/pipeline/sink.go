package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

// sinkBufSize amortizes write syscalls; the underlying writer may itself be
// a gzip encoder.
const sinkBufSize = 1 << 20 // 1 MiB

// lineSink drains the ordered queue and writes each payload followed by a
// newline. It also folds every emitted byte into a running xxh3 digest so a
// re-run over the same input can be verified cheaply without diffing output
// files.
//
// A write or flush failure is fatal for the run; output already flushed is
// left in place.
type lineSink struct {
	w   io.Writer
	in  *BoundedQueue[Record]
	out *bufio.Writer
	sum *xxh3.Hasher

	written int64
}

func newLineSink(w io.Writer, in *BoundedQueue[Record]) *lineSink {
	return &lineSink{
		w:   w,
		in:  in,
		out: bufio.NewWriterSize(w, sinkBufSize),
		sum: xxh3.New(),
	}
}

func (s *lineSink) run() error {
	for {
		rec, ok := s.in.Pop()
		if !ok {
			if err := s.out.Flush(); err != nil {
				return fmt.Errorf("flush output: %w", err)
			}
			return nil
		}

		if err := s.writeLine(rec.Payload); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		s.written++
	}
}

func (s *lineSink) writeLine(payload string) error {
	if _, err := s.out.WriteString(payload); err != nil {
		return err
	}
	if err := s.out.WriteByte('\n'); err != nil {
		return err
	}
	_, _ = s.sum.WriteString(payload)
	_, _ = s.sum.Write([]byte{'\n'})
	return nil
}

// checksum returns the hex xxh3 digest of everything written so far.
func (s *lineSink) checksum() string {
	return fmt.Sprintf("%016x", s.sum.Sum64())
}
