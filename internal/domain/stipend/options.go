package stipend

import (
	"time"

	"github.com/okian/stipend/pkg/logger"
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRates replaces the rate card.
func WithRates(r Rates) Option {
	return func(c *Calculator) { c.rates = r }
}

// WithVersion sets the token embedded in breakdown cache keys.
func WithVersion(v string) Option {
	return func(c *Calculator) {
		if v != "" {
			c.version = v
		}
	}
}

// WithDefaultBufferDays sets the buffer days used when a trip leaves them unset.
func WithDefaultBufferDays(pre, post int) Option {
	return func(c *Calculator) {
		if pre >= 0 {
			c.preDays = pre
		}
		if post >= 0 {
			c.postDays = post
		}
	}
}

// WithStore memoizes breakdowns in s.
func WithStore(s Store) Option {
	return func(c *Calculator) { c.store = s }
}

// WithClock overrides the CalculatedAt source.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the calculator's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) { c.log = logger.OrNop(l) }
}
