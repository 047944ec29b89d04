// Package datasource defines the byte-stream abstractions the pipeline
// consumes: a Source that yields raw input bytes and a Sink that accepts
// output bytes, both independent of compression and location.
package datasource

import (
	"context"
	"io"
)

// Source opens a readable byte stream. Implementations resolve compression
// transparently: the returned reader always yields plain bytes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sink creates a writable byte stream. Close flushes any encoder state
// (e.g. a gzip trailer) before closing the underlying file.
type Sink interface {
	Create(ctx context.Context) (io.WriteCloser, error)
}
