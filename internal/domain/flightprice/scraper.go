package flightprice

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
)

const (
	defaultScrapeRetries = 3
	defaultScrapeBackoff = 2 * time.Second
	defaultScrapeTimeout = 45 * time.Second
	scrapeCurrency       = "USD"
)

// ScrapeResult is the outcome of one scrape. A nil Price means nothing usable was found.
type ScrapeResult struct {
	Price  *float64
	Source string
}

// Scraper fetches a price from a flight search site. Search never panics and never fails;
// problems surface as a nil Price.
type Scraper interface {
	Search(ctx context.Context, q Query) ScrapeResult
}

// Fare is one price listed on a results page. Top marks fares the site highlights as best.
type Fare struct {
	Price float64
	Top   bool
}

// Browser opens an automation session showing search results for a query.
type Browser interface {
	Open(ctx context.Context, q Query) (Session, error)
}

// Session is a live results page.
type Session interface {
	SetCurrency(ctx context.Context, code string) error
	Fares(ctx context.Context) ([]Fare, error)
	Close() error
}

// BrowserScraper implements Scraper over a Browser. Only one session runs at a time.
type BrowserScraper struct {
	browser Browser
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	timeout time.Duration
	log     logger.Logger
}

// ScraperOption applies a configuration option to the BrowserScraper.
type ScraperOption func(*BrowserScraper)

// WithRetries sets the number of attempts per search.
func WithRetries(n int) ScraperOption {
	return func(s *BrowserScraper) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithBackoff sets the fixed pause between attempts.
func WithBackoff(d time.Duration) ScraperOption {
	return func(s *BrowserScraper) {
		if d >= 0 {
			s.backoff = d
		}
	}
}

// WithAttemptTimeout bounds each attempt.
func WithAttemptTimeout(d time.Duration) ScraperOption {
	return func(s *BrowserScraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMinInterval spaces session openings at least d apart.
func WithMinInterval(d time.Duration) ScraperOption {
	return func(s *BrowserScraper) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithScraperLogger sets the scraper's logger.
func WithScraperLogger(l logger.Logger) ScraperOption {
	return func(s *BrowserScraper) { s.log = logger.OrNop(l) }
}

// NewBrowserScraper creates a BrowserScraper over b.
func NewBrowserScraper(b Browser, opts ...ScraperOption) *BrowserScraper {
	s := &BrowserScraper{
		browser: b,
		sem:     semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(rate.Inf, 1),
		retries: defaultScrapeRetries,
		backoff: defaultScrapeBackoff,
		timeout: defaultScrapeTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search implements Scraper.
func (s *BrowserScraper) Search(ctx context.Context, q Query) (res ScrapeResult) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error(ctx, "scraper panicked", logger.Any("panic", p))
			res = ScrapeResult{Source: fmt.Sprintf("scraper: %v", ErrPanic)}
		}
	}()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return ScrapeResult{Source: fmt.Sprintf("scraper: %v", err)}
	}
	defer s.sem.Release(1)

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ScrapeResult{Source: fmt.Sprintf("scraper: %v", ctx.Err())}
			case <-time.After(s.backoff):
			}
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return ScrapeResult{Source: fmt.Sprintf("scraper: %v", err)}
		}

		price, source, err := s.scrape(ctx, q)
		if err == nil {
			return ScrapeResult{Price: &price, Source: source}
		}
		lastErr = err
		s.log.Warn(ctx, "scrape attempt failed",
			logger.Int("attempt", attempt), logger.Int("max_attempts", s.retries), logger.Error(err))
	}
	return ScrapeResult{Source: fmt.Sprintf("scraper: %v", lastErr)}
}

func (s *BrowserScraper) scrape(ctx context.Context, q Query) (float64, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.browser.Open(ctx, q)
	if err != nil {
		return 0, "", fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.log.Debug(ctx, "closing scraper session", logger.Error(cerr))
		}
	}()

	if err := sess.SetCurrency(ctx, scrapeCurrency); err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrCurrency, err)
	}
	fares, err := sess.Fares(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("read fares: %w", err)
	}
	return averageFares(fares)
}

// averageFares is the mean of the top fares, or of every fare when none is flagged top.
func averageFares(fares []Fare) (float64, string, error) {
	var top, all []float64
	for _, f := range fares {
		if f.Price <= 0 {
			continue
		}
		all = append(all, f.Price)
		if f.Top {
			top = append(top, f.Price)
		}
	}
	switch {
	case len(top) > 0:
		return mean(top), fmt.Sprintf("scraper: mean of %d top fares", len(top)), nil
	case len(all) > 0:
		return mean(all), fmt.Sprintf("scraper: mean of %d fares", len(all)), nil
	default:
		return 0, "", ErrNoPrice
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// ScraperStrategy adapts a Scraper to Strategy.
type ScraperStrategy struct {
	scraper Scraper
}

// NewScraperStrategy wraps s.
func NewScraperStrategy(s Scraper) *ScraperStrategy {
	return &ScraperStrategy{scraper: s}
}

// Name implements Strategy.
func (s *ScraperStrategy) Name() string { return "scraper" }

// Resolve implements Strategy.
func (s *ScraperStrategy) Resolve(ctx context.Context, q Query) (model.PriceResult, error) {
	r := s.scraper.Search(ctx, q)
	if r.Price == nil {
		if r.Source == "" {
			return model.PriceResult{}, ErrNoPrice
		}
		return model.PriceResult{}, fmt.Errorf("%w: %s", ErrNoPrice, r.Source)
	}
	return model.PriceResult{Price: *r.Price, Source: r.Source}, nil
}
