package scraper

import "errors"

// Sentinel errors for browser sessions.
var (
	ErrNotStarted = errors.New("browser not started")
	ErrNoResults  = errors.New("results page shows no fares")
	ErrSearchURL  = errors.New("invalid search url template")
	ErrCurrency   = errors.New("results are not priced in the requested currency")
)
