package flightprice

import "errors"

// Sentinel errors returned by strategies. The Resolver absorbs all of them.
var (
	ErrNoPrice      = errors.New("no price found")
	ErrNoAirport    = errors.New("no airport for location")
	ErrNoOffers     = errors.New("no flight offers")
	ErrCurrency     = errors.New("currency could not be set")
	ErrInvalidPrice = errors.New("strategy returned an invalid price")
	ErrPanic        = errors.New("strategy panicked")
)
