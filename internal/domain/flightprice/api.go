package flightprice

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/stipend/internal/domain/model"
)

const (
	defaultMaxPrice  = 5000
	defaultMaxOffers = 10
)

// OfferQuery asks a flight offers API for round-trip economy fares.
type OfferQuery struct {
	Origin      string // IATA
	Destination string // IATA
	Departure   time.Time
	Return      time.Time
	Adults      int
	MaxPrice    int
	Max         int
}

// Offer is one priced round trip.
type Offer struct {
	Total       float64
	Currency    string
	Itineraries []Itinerary
}

// Itinerary is one direction of an offer.
type Itinerary struct {
	Segments []Segment
}

// Segment is one flight leg.
type Segment struct {
	CarrierCode          string
	OperatingCarrierCode string
}

// Operator returns the operating carrier, falling back to the marketing carrier.
func (s Segment) Operator() string {
	if s.OperatingCarrierCode != "" {
		return s.OperatingCarrierCode
	}
	return s.CarrierCode
}

// FlightAPI lists flight offers.
type FlightAPI interface {
	Offers(ctx context.Context, q OfferQuery) ([]Offer, error)
}

// AirportLocator maps location text to the IATA code that serves it.
type AirportLocator interface {
	AirportFor(ctx context.Context, location string) (string, bool)
}

// APIStrategy prices a trip from the mean of API offers.
type APIStrategy struct {
	api       FlightAPI
	airports  AirportLocator
	maxPrice  int
	maxOffers int
}

// APIOption applies a configuration option to the APIStrategy.
type APIOption func(*APIStrategy)

// WithMaxPrice caps offer totals requested from the API.
func WithMaxPrice(p int) APIOption {
	return func(s *APIStrategy) {
		if p > 0 {
			s.maxPrice = p
		}
	}
}

// WithMaxOffers caps the number of offers requested.
func WithMaxOffers(n int) APIOption {
	return func(s *APIStrategy) {
		if n > 0 {
			s.maxOffers = n
		}
	}
}

// NewAPIStrategy creates an APIStrategy.
func NewAPIStrategy(api FlightAPI, airports AirportLocator, opts ...APIOption) *APIStrategy {
	s := &APIStrategy{
		api:       api,
		airports:  airports,
		maxPrice:  defaultMaxPrice,
		maxOffers: defaultMaxOffers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Strategy.
func (s *APIStrategy) Name() string { return "api" }

// Resolve implements Strategy. Unless the trip allows budget carriers, offers
// flown entirely by alliance members are preferred; if none remain, every offer counts.
func (s *APIStrategy) Resolve(ctx context.Context, q Query) (model.PriceResult, error) {
	origin, ok := s.airports.AirportFor(ctx, q.Origin)
	if !ok {
		return model.PriceResult{}, fmt.Errorf("%w: %q", ErrNoAirport, q.Origin)
	}
	dest, ok := s.airports.AirportFor(ctx, q.Destination)
	if !ok {
		return model.PriceResult{}, fmt.Errorf("%w: %q", ErrNoAirport, q.Destination)
	}

	offers, err := s.api.Offers(ctx, OfferQuery{
		Origin:      origin,
		Destination: dest,
		Departure:   q.Outbound,
		Return:      q.Inbound,
		Adults:      1,
		MaxPrice:    s.maxPrice,
		Max:         s.maxOffers,
	})
	if err != nil {
		return model.PriceResult{}, fmt.Errorf("flight offers %s-%s: %w", origin, dest, err)
	}

	filter := "all carriers"
	if !q.IncludeBudgetCarriers {
		if kept := allianceOnly(offers); len(kept) > 0 {
			offers = kept
			filter = "alliance carriers"
		}
	}

	var totals []float64
	for _, o := range offers {
		if o.Total > 0 {
			totals = append(totals, o.Total)
		}
	}
	if len(totals) == 0 {
		return model.PriceResult{}, fmt.Errorf("%w: %s-%s", ErrNoOffers, origin, dest)
	}
	return model.PriceResult{
		Price:  mean(totals),
		Source: fmt.Sprintf("flight API %s-%s: mean of %d offers (%s)", origin, dest, len(totals), filter),
	}, nil
}
