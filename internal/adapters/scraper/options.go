package scraper

import (
	"time"

	"github.com/okian/stipend/pkg/logger"
)

// Selectors locate fares on a rendered results page.
type Selectors struct {
	// Results is waited for before fares are read.
	Results string
	// Fare matches one listed fare; its text holds the price.
	Fare string
	// Top matches the section the site highlights as best flights.
	Top string
	// Currency matches the element showing the active display currency.
	// Empty skips the check.
	Currency string
}

// DefaultSelectors fit a results page that lists fares in item rows.
var DefaultSelectors = Selectors{
	Results:  `[role="main"]`,
	Fare:     `li [data-gs] span[aria-label*="dollars"], li .fare-price`,
	Top:      `[data-section="best"], .best-flights`,
	Currency: `[data-currency], .currency-selector`,
}

// Option applies a configuration option to the Chrome browser.
type Option func(*Chrome)

// WithHeadless toggles headless mode.
func WithHeadless(on bool) Option {
	return func(c *Chrome) { c.headless = on }
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(c *Chrome) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSelectors overrides the fare selectors.
func WithSelectors(s Selectors) Option {
	return func(c *Chrome) { c.selectors = s }
}

// WithSettleDelay sets how long to wait after results appear for late rendering.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Chrome) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithLogger sets the browser's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Chrome) { c.log = logger.OrNop(l) }
}
