package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// sourceBufSize is the initial size of the read buffer. Wide lines (a data
// line can carry thousands of columns) grow past it without re-reading.
const sourceBufSize = 1 << 20 // 1 MiB

// lineSource reads the input one line at a time, assigns sequence numbers in
// strict read order, classifies each line, and pushes it onto the raw queue,
// blocking under back-pressure.
//
// Whatever happens, the raw queue is closed exactly once on the way out so
// downstream stages observe end-of-stream; already-queued records still
// drain. A data line before the schema line, or a stream that ends without
// one, fails the gate so no data worker hangs on await.
type lineSource struct {
	r         io.Reader
	out       *BoundedQueue[Record]
	gate      *schemaGate
	isSchema  func(string) bool
	isComment func(string) bool
}

func (s *lineSource) run() error {
	defer s.out.Close()

	br := bufio.NewReaderSize(s.r, sourceBufSize)
	var (
		seq       uint64
		sawSchema bool
	)

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			s.gate.fail(fmt.Errorf("read input: %w", err))
			return fmt.Errorf("read input: %w", err)
		}
		atEOF := err == io.EOF
		if atEOF && line == "" {
			break
		}

		// Strip exactly one line terminator; a payload byte that happens to
		// be a carriage return stays.
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		rec := Record{Seq: seq, Payload: line}
		switch {
		case !sawSchema && s.isSchema(line):
			rec.Kind = KindSchema
			sawSchema = true
		case s.isComment(line):
			rec.Kind = KindHeader
		default:
			rec.Kind = KindData
			if !sawSchema {
				// A data line ahead of the schema line can never be
				// transformed; fail the gate now so workers error out
				// instead of waiting forever for a resolution that cannot
				// happen while they hold the records in front of it.
				s.gate.fail(ErrNoSchema)
			}
		}
		seq++

		if pushErr := s.out.Push(rec); pushErr != nil {
			// Queue closed by a shutdown elsewhere; the first error is
			// already on its way to the caller.
			return nil
		}
		if atEOF {
			break
		}
	}

	if !sawSchema {
		// Harmless when the input had no data lines: nobody awaits the gate.
		s.gate.fail(ErrNoSchema)
	}
	return nil
}
