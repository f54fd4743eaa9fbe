// Package dedupe tracks trips that are already pending so identical work is queued once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records pending keys.
type Deduper interface {
	// SeenAndRecord atomically checks whether key is pending and records it if not.
	// It returns true if key was already pending.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its work has finished or could not be queued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// InMemoryDeduper implements Deduper with a guarded set.
type InMemoryDeduper struct {
	mu      sync.Mutex
	pending map[string]struct{}
	maxSize int
}

// NewInMemoryDeduper creates an unbounded deduper unless WithMaxSize is given.
func NewInMemoryDeduper(opts ...Option) *InMemoryDeduper {
	d := &InMemoryDeduper{pending: make(map[string]struct{})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *InMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.pending) >= d.maxSize {
		return false
	}
	d.pending[key] = struct{}{}
	return false
}

// Unrecord implements Deduper.
func (d *InMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, key)
}

// Size returns the number of pending keys.
func (d *InMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.pending))
}
