// Package costofliving turns a city's cost-of-living index into a price multiplier.
package costofliving

import (
	"context"
	"strings"

	"github.com/okian/stipend/internal/adapters/cache"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

// DefaultFactor applies when a city has no usable index.
const DefaultFactor = 1.0

const defaultReferenceIndex = 100.0

// Source looks up a raw cost-of-living index by city name.
type Source interface {
	CostOfLiving(ctx context.Context, city string) (float64, bool, error)
}

// Store memoizes factors across runs.
type Store interface {
	Get(key string) (float64, bool)
	Set(key string, value float64)
}

// Adjuster computes cost-of-living factors relative to a reference index.
type Adjuster struct {
	src       Source
	store     Store
	version   string
	reference float64
	log       logger.Logger
}

// Option applies a configuration option to the Adjuster.
type Option func(*Adjuster)

// WithStore memoizes factors in s.
func WithStore(s Store) Option {
	return func(a *Adjuster) { a.store = s }
}

// WithVersion sets the token embedded in cache keys.
func WithVersion(v string) Option {
	return func(a *Adjuster) {
		if v != "" {
			a.version = v
		}
	}
}

// WithReferenceIndex sets the index that maps to a factor of 1.0.
func WithReferenceIndex(ref float64) Option {
	return func(a *Adjuster) {
		if ref > 0 {
			a.reference = ref
		}
	}
}

// WithLogger sets the adjuster's logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adjuster) { a.log = logger.OrNop(l) }
}

// New creates an Adjuster over src.
func New(src Source, opts ...Option) *Adjuster {
	a := &Adjuster{
		src:       src,
		version:   "v1",
		reference: defaultReferenceIndex,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Factor returns index/reference for city, or DefaultFactor when the city is
// unknown, its index is not positive, or the source fails.
func (a *Adjuster) Factor(ctx context.Context, city string) float64 {
	key := cache.Key("col", a.version, city)
	if a.store != nil {
		if f, ok := a.store.Get(key); ok {
			return f
		}
	}

	factor, found := DefaultFactor, false
	for _, name := range variants(city) {
		index, ok, err := a.src.CostOfLiving(ctx, name)
		if err != nil {
			a.log.Warn(ctx, "cost-of-living lookup failed, using default factor",
				logger.String("city", city), logger.Error(err))
			metrics.RecordErrorByComponent("costofliving", "source")
			return DefaultFactor
		}
		if ok && index > 0 {
			factor, found = index/a.reference, true
			break
		}
	}
	if !found {
		a.log.Debug(ctx, "no cost-of-living index, using default factor", logger.String("city", city))
	}

	if a.store != nil {
		a.store.Set(key, factor)
	}
	return factor
}

// variants lists the spellings tried in order: as given, "City, CC", "City CC", then the city alone.
func variants(city string) []string {
	trimmed := strings.TrimSpace(city)
	out := []string{trimmed}
	add := func(s string) {
		if s == "" {
			return
		}
		for _, seen := range out {
			if seen == s {
				return
			}
		}
		out = append(out, s)
	}

	var parts []string
	if strings.Contains(trimmed, ",") {
		for _, p := range strings.Split(trimmed, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	} else {
		parts = strings.Fields(trimmed)
	}
	if len(parts) < 2 {
		return out
	}
	head := strings.Join(parts[:len(parts)-1], " ")
	tail := parts[len(parts)-1]
	add(head + ", " + tail)
	add(head + " " + tail)
	add(head)
	return out
}
