package location

import "github.com/okian/stipend/pkg/logger"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithThreshold sets the minimum fuzzy similarity accepted. Values outside [0,1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) {
		if threshold >= 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

// WithLogger sets the logger used for unresolved-location warnings.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		r.log = logger.OrNop(l)
	}
}
