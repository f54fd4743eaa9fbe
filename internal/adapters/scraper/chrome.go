// Package scraper drives a headless Chrome through a flight search site and
// reads listed fares from the rendered page.
package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/okian/stipend/internal/domain/flightprice"
	"github.com/okian/stipend/pkg/logger"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0 Safari/537.36"

// Chrome implements flightprice.Browser with chromedp. One browser process
// serves every session; each session is its own tab.
type Chrome struct {
	searchURL string
	headless  bool
	userAgent string
	selectors Selectors
	settle    time.Duration
	log       logger.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// New creates a Chrome browser that searches searchURL (see SearchURL).
func New(searchURL string, opts ...Option) *Chrome {
	c := &Chrome{
		searchURL: searchURL,
		headless:  true,
		userAgent: defaultUserAgent,
		selectors: DefaultSelectors,
		settle:    1500 * time.Millisecond,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the browser process.
func (c *Chrome) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browserCtx != nil {
		return nil
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(c.userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the process.
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("start browser: %w", err)
	}

	c.browserCtx, c.browserCancel, c.allocCancel = browserCtx, browserCancel, allocCancel
	c.log.Info(ctx, "browser started", logger.Bool("headless", c.headless))
	return nil
}

// Stop shuts the browser down.
func (c *Chrome) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browserCtx == nil {
		return
	}
	c.browserCancel()
	c.allocCancel()
	c.browserCtx = nil
}

// Open implements flightprice.Browser.
func (c *Chrome) Open(ctx context.Context, q flightprice.Query) (flightprice.Session, error) {
	c.mu.Lock()
	parent := c.browserCtx
	c.mu.Unlock()
	if parent == nil {
		return nil, ErrNotStarted
	}

	target, err := SearchURL(c.searchURL, q)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(parent)
	// Bound the tab by the caller's deadline.
	stop := context.AfterFunc(ctx, cancel)

	if err := chromedp.Run(tabCtx, chromedp.Navigate(target)); err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("navigate: %w", err)
	}
	c.log.Debug(ctx, "search page opened",
		logger.String("origin", q.Origin), logger.String("destination", q.Destination))

	return &session{ctx: tabCtx, cancel: func() { stop(); cancel() }, url: target, browser: c}, nil
}

type session struct {
	ctx     context.Context
	cancel  func()
	url     string
	browser *Chrome
}

// SetCurrency reloads the results with prices in code and checks that the
// page now shows that currency.
func (s *session) SetCurrency(ctx context.Context, code string) error {
	target, err := withCurrency(s.url, code)
	if err != nil {
		return err
	}
	if err := chromedp.Run(s.ctx, chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("switch currency: %w", err)
	}
	s.url = target

	sel := s.browser.selectors
	if sel.Currency == "" {
		return nil
	}
	var html string
	err = chromedp.Run(s.ctx,
		chromedp.WaitVisible(sel.Results, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("read currency: %w", err)
	}
	if err := CheckCurrency(html, sel, code); err != nil {
		s.browser.log.Warn(ctx, "currency not applied", logger.String("currency", code), logger.Error(err))
		return err
	}
	return nil
}

// Fares waits for results and reads every listed fare.
func (s *session) Fares(_ context.Context) ([]flightprice.Fare, error) {
	sel := s.browser.selectors
	var html string
	err := chromedp.Run(s.ctx,
		chromedp.WaitVisible(sel.Results, chromedp.ByQuery),
		chromedp.Sleep(s.browser.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render results: %w", err)
	}
	return ExtractFares(html, sel)
}

// Close closes the tab.
func (s *session) Close() error {
	s.cancel()
	return nil
}

var _ flightprice.Browser = (*Chrome)(nil)
