package batch

import (
	"time"

	"github.com/okian/stipend/internal/domain/dedupe"
	"github.com/okian/stipend/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithDeduper sets the pending-trip set. Defaults to an unbounded in-memory set.
func WithDeduper(d dedupe.Deduper) Option {
	return func(t *Tracker) {
		if d != nil {
			t.pending = d
		}
	}
}

// WithRetention keeps at most n finished jobs; older finished jobs are forgotten.
func WithRetention(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.retention = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIDs overrides job ID generation.
func WithIDs(next func() string) Option {
	return func(t *Tracker) {
		if next != nil {
			t.newID = next
		}
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) { t.log = logger.OrNop(l) }
}
