// Package flightprice resolves a round-trip flight price through an ordered
// chain of unreliable strategies. The chain always ends with a usable price.
package flightprice

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/stipend/internal/adapters/cache"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

const defaultTTL = 6 * time.Hour

// Strategy is one way of pricing a trip.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, q Query) (model.PriceResult, error)
}

// Store holds resolved prices keyed by route and dates.
type Store interface {
	GetFresh(key string, maxAge time.Duration) (model.PriceResult, bool)
	Set(key string, value model.PriceResult)
}

// uncacheable is implemented by strategies whose results are cheap to recompute.
type uncacheable interface {
	Cacheable() bool
}

// Resolver tries each strategy in order, consulting the store before every attempt.
type Resolver struct {
	strategies []Strategy
	store      Store
	ttl        time.Duration
	version    string
	log        logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithStore caches successful results in s.
func WithStore(s Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithTTL bounds the age of cached prices.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithVersion sets the token embedded in cache keys.
func WithVersion(v string) Option {
	return func(r *Resolver) {
		if v != "" {
			r.version = v
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) { r.log = logger.OrNop(l) }
}

// NewResolver creates a Resolver over strategies, tried in the given order.
func NewResolver(strategies []Strategy, opts ...Option) *Resolver {
	r := &Resolver{
		strategies: strategies,
		ttl:        defaultTTL,
		version:    "v1",
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key is the cache key for q.
func (r *Resolver) Key(q Query) string {
	return cache.Key("flight", r.version, q.Origin, q.Destination,
		q.Outbound.Format(DateLayout), q.Inbound.Format(DateLayout), q.IncludeBudgetCarriers)
}

// Resolve returns the first valid price in strategy order. It never fails:
// when every strategy fails the result is a zero price naming the failure.
func (r *Resolver) Resolve(ctx context.Context, q Query) model.PriceResult {
	key := r.Key(q)
	for _, s := range r.strategies {
		if r.store != nil {
			if p, ok := r.store.GetFresh(key, r.ttl); ok && p.Valid() {
				metrics.RecordStrategyAttempt("cache", metrics.OutcomeCached, 0)
				return p
			}
		}

		start := time.Now()
		res, err := attempt(ctx, s, q)
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		if err != nil {
			metrics.RecordStrategyAttempt(s.Name(), metrics.OutcomeFailure, elapsed)
			r.log.Warn(ctx, "price strategy failed, trying next",
				logger.String("strategy", s.Name()),
				logger.String("origin", q.Origin),
				logger.String("destination", q.Destination),
				logger.Error(err))
			continue
		}
		metrics.RecordStrategyAttempt(s.Name(), metrics.OutcomeSuccess, elapsed)

		if r.store != nil && cacheable(s) {
			r.store.Set(key, res)
		}
		r.log.Debug(ctx, "flight price resolved",
			logger.String("strategy", s.Name()), logger.Float64("price", res.Price))
		return res
	}

	r.log.Error(ctx, "every price strategy failed",
		logger.String("origin", q.Origin), logger.String("destination", q.Destination))
	return model.PriceResult{Price: 0, Source: "unavailable: every price strategy failed"}
}

// attempt runs one strategy, turning panics and contract violations into errors.
func attempt(ctx context.Context, s Strategy, q Query) (res model.PriceResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = model.PriceResult{}, fmt.Errorf("%w: %s: %v", ErrPanic, s.Name(), p)
		}
	}()
	res, err = s.Resolve(ctx, q)
	if err != nil {
		return model.PriceResult{}, err
	}
	if !res.Valid() {
		return model.PriceResult{}, fmt.Errorf("%w: %s: %+v", ErrInvalidPrice, s.Name(), res)
	}
	return res, nil
}

func cacheable(s Strategy) bool {
	if u, ok := s.(uncacheable); ok {
		return u.Cacheable()
	}
	return true
}
