// Package file implements local filesystem-backed data sources and sinks
// with transparent gzip handling on both ends.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Local is a filesystem data source that opens files from the local disk.
// Gzipped inputs are detected by content (magic bytes), not by file name, so
// a misnamed .vcf that is actually gzipped still reads correctly.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading and returns an io.ReadCloser
// yielding plain (decompressed) bytes.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - The kernel is advised that the file will be read sequentially.
//   - If the stream starts with the gzip magic, it is wrapped in a gzip
//     decoder; otherwise the bytes pass through untouched.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}

	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)

	rc, err := maybeGzip(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return rc, nil
}
