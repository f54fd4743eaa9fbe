package flightapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/stipend/pkg/logger"
)

// Option configures the Client.
type Option func(*Client)

// WithTimeout bounds each HTTP call, token requests included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces calls to rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithHTTPClient sets the transport used for token and offer calls.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.base = h
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = logger.OrNop(l) }
}
