// Package manifest contains the backend-agnostic contract for the run
// manifest: a small audit store with one row per completed filter run
// (input, output, counts, checksum, timing).
//
// The manifest is advisory. It is written after a successful run so a later
// re-run over the same input can be compared by checksum instead of by
// diffing output files. Concrete backends (sqlite, postgres) live in
// subpackages and register themselves at init time; callers select one by
// kind, mirroring the pluggable-backend pattern used by the metrics package.
package manifest

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Run is one manifest row.
type Run struct {
	Job       string
	Input     string
	Output    string
	Samples   string
	Workers   int
	Lines     int64
	Data      int64
	Malformed int64
	Matched   int
	Checksum  string
	StartedAt time.Time
	Elapsed   time.Duration
}

// Repository persists manifest rows.
type Repository interface {
	// RecordRun appends one run. Implementations create their schema on
	// first use.
	RecordRun(ctx context.Context, run Run) error
	// Close releases the underlying connection.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend implementation ("sqlite", "postgres").
	Kind string
	// DSN is the backend connection string.
	DSN string
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a backend factory for the given kind. It
// is typically called from backend packages' init() functions; importing
// vcfilter/internal/manifest/all registers every built-in backend.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New constructs the Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported manifest.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend kinds. The returned slice is a
// copy; mutating it does not affect the registry.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	return kinds
}
