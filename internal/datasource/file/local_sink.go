package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// LocalSink is a filesystem data sink. When compress is set, written bytes
// are gzip-encoded on the fly; Close flushes the gzip trailer before closing
// the file.
type LocalSink struct {
	path     string
	compress bool
}

// NewLocalSink returns a sink writing to path, optionally gzip-compressed.
func NewLocalSink(path string, compress bool) *LocalSink {
	return &LocalSink{path: path, compress: compress}
}

// Create creates (or truncates) the configured path and returns the write
// stream. The context is only consulted up front; file writes themselves are
// not cancelable.
func (s *LocalSink) Create(ctx context.Context) (io.WriteCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.path, err)
	}
	if !s.compress {
		return f, nil
	}
	return &gzipWriteCloser{zw: gzip.NewWriter(f), f: f}, nil
}

// gzipWriteCloser closes the encoder before the file so the trailer lands on
// disk.
type gzipWriteCloser struct {
	zw *gzip.Writer
	f  *os.File
}

func (w *gzipWriteCloser) Write(p []byte) (int, error) { return w.zw.Write(p) }

func (w *gzipWriteCloser) Close() error {
	zerr := w.zw.Close()
	ferr := w.f.Close()
	if zerr != nil {
		return fmt.Errorf("close gzip stream: %w", zerr)
	}
	return ferr
}
