package file

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzip streams start with 0x1f 0x8b.
var gzipMagic = [2]byte{0x1f, 0x8b}

// readCloser pairs a wrapped Reader with the Closer of the underlying
// stream so Close still reaches the file.
type readCloser struct {
	io.Reader
	io.Closer
}

// maybeGzip sniffs the first two bytes of rc and, when they match the gzip
// magic, wraps rc in a gzip decoder. The peeked bytes are not consumed: the
// returned reader always yields the stream from its first byte.
func maybeGzip(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)

	magic, err := br.Peek(2)
	if err != nil {
		// Short or empty stream: cannot be gzip, pass through. Read errors
		// surface on the first real read.
		return &readCloser{Reader: br, Closer: rc}, nil
	}
	if magic[0] != gzipMagic[0] || magic[1] != gzipMagic[1] {
		return &readCloser{Reader: br, Closer: rc}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	return &readCloser{Reader: zr, Closer: rc}, nil
}
