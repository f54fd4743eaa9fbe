package cache

import (
	"time"

	"github.com/okian/stipend/pkg/logger"
)

type options struct {
	name         string
	log          logger.Logger
	now          func() time.Time
	writeThrough bool
}

// Option applies a configuration option to a Cache.
type Option func(*options)

// WithName labels the cache in logs and metrics. Defaults to the file's base name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger for disk failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = logger.OrNop(l)
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithWriteThrough flushes the whole file after every Set.
func WithWriteThrough() Option {
	return func(o *options) {
		o.writeThrough = true
	}
}
