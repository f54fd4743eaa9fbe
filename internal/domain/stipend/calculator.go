// Package stipend assembles the itemized travel estimate for a trip.
//
// Stages run in order: resolve both locations, measure the distance, price
// the flight, look up the cost-of-living factor, then assemble the breakdown.
// Every externally sourced failure degrades to a default; only malformed input
// is an error.
package stipend

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/stipend/internal/adapters/cache"
	"github.com/okian/stipend/internal/domain/flightprice"
	"github.com/okian/stipend/internal/domain/geo"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

// LocationResolver maps location text to a match.
type LocationResolver interface {
	Match(ctx context.Context, input string) (model.LocationMatch, bool)
}

// PriceResolver prices a round-trip flight. It must always answer.
type PriceResolver interface {
	Resolve(ctx context.Context, q flightprice.Query) model.PriceResult
}

// CostOfLiving returns a price multiplier for a city.
type CostOfLiving interface {
	Factor(ctx context.Context, city string) float64
}

// TaxiRates looks up local transport pricing for a city.
type TaxiRates interface {
	TaxiRates(ctx context.Context, city string) (model.TaxiRate, bool, error)
}

// Store memoizes finished breakdowns.
type Store interface {
	Get(key string) (model.StipendBreakdown, bool)
	Set(key string, value model.StipendBreakdown)
}

// Calculator is the pipeline entry point.
type Calculator struct {
	locations LocationResolver
	prices    PriceResolver
	col       CostOfLiving
	taxis     TaxiRates
	store     Store

	rates    Rates
	version  string
	preDays  int
	postDays int
	now      func() time.Time
	log      logger.Logger

	inflight singleflight.Group
}

// New creates a Calculator. taxis may be nil, in which case transport uses the flat rate.
func New(locations LocationResolver, prices PriceResolver, col CostOfLiving, taxis TaxiRates, opts ...Option) *Calculator {
	c := &Calculator{
		locations: locations,
		prices:    prices,
		col:       col,
		taxis:     taxis,
		rates:     DefaultRates(),
		version:   "v1",
		preDays:   1,
		postDays:  1,
		now:       time.Now,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key is the breakdown cache key for a normalized trip. Every input that
// changes the breakdown is part of it, with buffer days resolved to their defaults.
func (c *Calculator) Key(trip model.TripRequest) string {
	pre, post := c.bufferDays(trip)
	return cache.Key("stipend", c.version, trip.Label(),
		trip.Start.Format(time.DateOnly), trip.End.Format(time.DateOnly), trip.Origin,
		trip.Destination, pre, post, round2(trip.TicketPrice), trip.IncludeBudgetCarriers)
}

// TripKey validates trip and returns the key its breakdown is stored under.
func (c *Calculator) TripKey(trip model.TripRequest) (string, error) {
	trip, err := normalize(trip)
	if err != nil {
		return "", err
	}
	return c.Key(trip), nil
}

// Calculate returns the breakdown for trip. Concurrent calls for the same trip share one run.
func (c *Calculator) Calculate(ctx context.Context, trip model.TripRequest) (model.StipendBreakdown, error) {
	trip, err := normalize(trip)
	if err != nil {
		return model.StipendBreakdown{}, err
	}

	key := c.Key(trip)
	if c.store != nil {
		if b, ok := c.store.Get(key); ok {
			return b, nil
		}
	}

	v, _, _ := c.inflight.Do(key, func() (any, error) {
		start := time.Now()
		b := c.assemble(ctx, trip)
		metrics.RecordStipendCalculated(float64(time.Since(start).Microseconds()) / 1000)
		if c.store != nil {
			c.store.Set(key, b)
		}
		return b, nil
	})
	return v.(model.StipendBreakdown), nil
}

func (c *Calculator) assemble(ctx context.Context, trip model.TripRequest) model.StipendBreakdown {
	originMatch, _ := c.locations.Match(ctx, trip.Origin)
	destMatch, destOK := c.locations.Match(ctx, trip.Destination)

	local := geo.IsLocalTrip(trip.Origin, trip.Destination, originMatch.Coordinates, destMatch.Coordinates)
	pre, post := c.bufferDays(trip)
	if local {
		pre, post = 0, 0
		metrics.RecordLocalTrip()
	}

	confDays := daysBetween(trip.Start, trip.End) + 1
	totalDays := confDays + pre + post
	nights := totalDays - 1

	km := 0.0
	if !local {
		km = geo.Distance(originMatch.Coordinates, destMatch.Coordinates)
	}

	flight := model.NoFlight
	if !local {
		flight = c.prices.Resolve(ctx, flightprice.Query{
			Origin:                trip.Origin,
			Destination:           trip.Destination,
			Outbound:              trip.Start.AddDate(0, 0, -pre),
			Inbound:               trip.End.AddDate(0, 0, post),
			OriginCoords:          originMatch.Coordinates,
			DestinationCoords:     destMatch.Coordinates,
			IncludeBudgetCarriers: trip.IncludeBudgetCarriers,
		})
	}

	city := trip.Destination
	if destOK {
		city = destMatch.Name
	}
	factor := c.col.Factor(ctx, city)

	weekday, weekend := splitNights(trip.Start.AddDate(0, 0, -pre), nights)
	lodging := 0.0
	if !local {
		nightly := c.rates.LodgingWeekday * factor
		lodging = float64(weekday)*nightly + float64(weekend)*nightly*c.rates.WeekendMultiplier
	}

	mealsBasic := round2(c.mealsBasic(totalDays, factor))
	mealsEntertainment := round2(c.rates.EntertainmentPerDay * float64(confDays))
	transport := c.transport(ctx, city, totalDays, factor)

	internet := 0.0
	if !local {
		internet = c.rates.InternetPerDay * float64(totalDays)
	}
	incidentals := c.rates.IncidentalsPerDay * float64(totalDays)

	b := model.StipendBreakdown{
		Conference:     trip.Label(),
		Origin:         trip.Origin,
		Destination:    trip.Destination,
		Start:          trip.Start,
		End:            trip.End,
		ConferenceDays: confDays,
		TotalDays:      totalDays,
		Nights:         nights,
		WeekdayNights:  weekday,
		WeekendNights:  weekend,
		PreDays:        pre,
		PostDays:       post,
		LocalTrip:      local,
		DistanceKm:     round2(km),
		DistanceTier:   geo.Tier(km),

		FlightCost:             round2(flight.Price),
		FlightSource:           flight.Source,
		LodgingCost:            round2(lodging),
		MealsBasicCost:         mealsBasic,
		MealsEntertainmentCost: mealsEntertainment,
		MealsCost:              round2(mealsBasic + mealsEntertainment),
		LocalTransportCost:     round2(transport),
		TicketPrice:            round2(trip.TicketPrice),
		InternetAllowance:      round2(internet),
		IncidentalsAllowance:   round2(incidentals),

		CostOfLivingFactor: factor,
		OriginMatch:        originMatch,
		DestinationMatch:   destMatch,
		Version:            c.version,
		CalculatedAt:       c.now().UTC(),
	}
	b.TotalStipend = total(b)

	c.log.Info(ctx, "stipend calculated",
		logger.String("conference", b.Conference),
		logger.String("origin", b.Origin),
		logger.String("destination", b.Destination),
		logger.Bool("local", local),
		logger.String("flight_source", b.FlightSource),
		logger.Float64("total", b.TotalStipend))
	return b
}

// total sums the already-rounded components and rounds again. The order is
// fixed so results match previously published breakdowns to the cent.
func total(b model.StipendBreakdown) float64 {
	return round2(b.FlightCost + b.LodgingCost + b.MealsCost + b.LocalTransportCost +
		b.TicketPrice + b.InternetAllowance + b.IncidentalsAllowance)
}

func (c *Calculator) bufferDays(trip model.TripRequest) (int, int) {
	pre, post := c.preDays, c.postDays
	if trip.PreDays != nil {
		pre = *trip.PreDays
	}
	if trip.PostDays != nil {
		post = *trip.PostDays
	}
	return pre, post
}

// splitNights walks n nights from first and counts Saturday and Sunday nights as weekend.
func splitNights(first time.Time, n int) (weekday, weekend int) {
	for i := 0; i < n; i++ {
		switch first.AddDate(0, 0, i).Weekday() {
		case time.Saturday, time.Sunday:
			weekend++
		default:
			weekday++
		}
	}
	return weekday, weekend
}

func (c *Calculator) mealsBasic(days int, factor float64) float64 {
	var sum float64
	for d := 1; d <= days; d++ {
		rate := c.rates.MealsDaily * factor
		if d > c.rates.MealsFullRateDays {
			rate *= c.rates.MealsTaper
		}
		sum += rate
	}
	return sum
}

func (c *Calculator) transport(ctx context.Context, city string, days int, factor float64) float64 {
	if c.taxis != nil {
		rate, ok, err := c.taxis.TaxiRates(ctx, city)
		switch {
		case err != nil:
			c.log.Warn(ctx, "taxi rates unavailable, using flat transport rate",
				logger.String("city", city), logger.Error(err))
			metrics.RecordErrorByComponent("stipend", "taxi_rates")
		case ok:
			perTrip := rate.BaseFare + rate.PerKm*rate.TypicalTripKm
			return perTrip * c.rates.TransportTripsPerDay * float64(days) * factor
		}
	}
	return c.rates.TransportFlatPerDay * float64(days) * factor
}
