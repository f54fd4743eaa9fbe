package stipend

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/okian/stipend/internal/adapters/cache"
	"github.com/okian/stipend/internal/domain/costofliving"
	"github.com/okian/stipend/internal/domain/flightprice"
	"github.com/okian/stipend/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeLocations map[string]model.LocationMatch

func (f fakeLocations) Match(_ context.Context, input string) (model.LocationMatch, bool) {
	m, ok := f[input]
	if !ok {
		return model.LocationMatch{Input: input, Coordinates: model.Unresolved, Method: model.MatchNone}, false
	}
	return m, true
}

type MockPrices struct {
	mock.Mock
}

func (m *MockPrices) Resolve(ctx context.Context, q flightprice.Query) model.PriceResult {
	return m.Called(ctx, q).Get(0).(model.PriceResult)
}

type indexSource map[string]float64

func (s indexSource) CostOfLiving(_ context.Context, city string) (float64, bool, error) {
	v, ok := s[city]
	return v, ok, nil
}

type taxiTable map[string]model.TaxiRate

func (t taxiTable) TaxiRates(_ context.Context, city string) (model.TaxiRate, bool, error) {
	r, ok := t[city]
	return r, ok, nil
}

type failingTaxis struct{}

func (failingTaxis) TaxiRates(context.Context, string) (model.TaxiRate, bool, error) {
	return model.TaxiRate{}, false, errors.New("db down")
}

var locations = fakeLocations{
	"Seoul, Korea": {Name: "Seoul, KR", Coordinates: model.Coordinates{Lat: 37.5665, Lng: 126.9780}, Similarity: 1, Method: model.MatchAlias},
	"Seoul, KR":    {Name: "Seoul, KR", Coordinates: model.Coordinates{Lat: 37.5665, Lng: 126.9780}, Similarity: 1, Method: model.MatchExact},
	"Tokyo, JP":    {Name: "Tokyo, JP", Coordinates: model.Coordinates{Lat: 35.6762, Lng: 139.6503}, Similarity: 1, Method: model.MatchExact},
	"Paris, FR":    {Name: "Paris, FR", Coordinates: model.Coordinates{Lat: 48.8566, Lng: 2.3522}, Similarity: 1, Method: model.MatchExact},
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func intp(i int) *int { return &i }

func componentSum(b model.StipendBreakdown) float64 {
	return b.FlightCost + b.LodgingCost + b.MealsCost + b.LocalTransportCost +
		b.TicketPrice + b.InternetAllowance + b.IncidentalsAllowance
}

func hasCents(x float64) bool {
	return math.Abs(x*100-math.Round(x*100)) < 1e-6
}

func TestLocalTrip(t *testing.T) {
	Convey("Given a trip from Seoul to Seoul on a single day", t, func() {
		prices := &MockPrices{}
		c := New(locations, prices, costofliving.New(indexSource{}), nil)

		b, err := c.Calculate(context.Background(), model.TripRequest{
			Origin:      "Seoul, Korea",
			Destination: "Seoul, Korea",
			Start:       date(2025, 5, 1),
			End:         date(2025, 5, 1),
		})

		Convey("Then no flight, lodging, or buffer days are billed", func() {
			So(err, ShouldBeNil)
			So(b.LocalTrip, ShouldBeTrue)
			So(b.FlightSource, ShouldEqual, "No flight needed")
			So(b.FlightCost, ShouldEqual, 0)
			So(b.LodgingCost, ShouldEqual, 0)
			So(b.PreDays, ShouldEqual, 0)
			So(b.PostDays, ShouldEqual, 0)
			So(b.DistanceKm, ShouldEqual, 0)
			So(b.DistanceTier, ShouldEqual, "local")
			prices.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})

		Convey("Then meals cover exactly one day", func() {
			So(b.TotalDays, ShouldEqual, 1)
			So(b.MealsBasicCost, ShouldEqual, 60)
			So(b.MealsEntertainmentCost, ShouldEqual, 20)
			So(b.InternetAllowance, ShouldEqual, 0)
			So(b.IncidentalsAllowance, ShouldEqual, 15)
			So(b.TotalStipend, ShouldEqual, 120)
		})
	})

	Convey("Given different spellings that resolve to the same point", t, func() {
		c := New(locations, &MockPrices{}, costofliving.New(indexSource{}), nil)
		b, err := c.Calculate(context.Background(), model.TripRequest{
			Origin: "Seoul, KR", Destination: "Seoul, Korea", Start: date(2025, 5, 1), End: date(2025, 5, 3),
			PreDays: intp(2), PostDays: intp(2),
		})
		So(err, ShouldBeNil)
		So(b.LocalTrip, ShouldBeTrue)
		So(b.PreDays+b.PostDays, ShouldEqual, 0)
		So(b.LodgingCost, ShouldEqual, 0)
	})
}

func TestUnresolvedDestination(t *testing.T) {
	Convey("Given a destination that cannot be resolved", t, func() {
		resolver := flightprice.NewResolver([]flightprice.Strategy{flightprice.NewDistanceStrategy(flightprice.DefaultRatePerKm)})
		c := New(locations, resolver, costofliving.New(indexSource{}), nil)

		b, err := c.Calculate(context.Background(), model.TripRequest{
			Origin: "Seoul, KR", Destination: "Zzzzqx", Start: date(2025, 9, 1), End: date(2025, 9, 2),
		})

		Convey("Then a breakdown is still produced from the zero-distance fallback", func() {
			So(err, ShouldBeNil)
			So(b.DestinationMatch.Coordinates, ShouldResemble, model.Unresolved)
			So(b.DistanceKm, ShouldEqual, 0)
			So(b.FlightCost, ShouldEqual, 0)
			So(b.FlightSource, ShouldContainSubstring, "distance estimate: 0 km")
			So(b.LocalTrip, ShouldBeFalse)
			So(b.TotalStipend, ShouldBeGreaterThan, 0)
		})
	})
}

func TestMissingCostOfLiving(t *testing.T) {
	Convey("Given a destination with no cost-of-living entry", t, func() {
		prices := &MockPrices{}
		prices.On("Resolve", mock.Anything, mock.Anything).Return(model.PriceResult{Price: 500, Source: "api"})
		c := New(locations, prices, costofliving.New(indexSource{}), nil)

		b, err := c.Calculate(context.Background(), model.TripRequest{
			Origin: "Seoul, KR", Destination: "Tokyo, JP",
			Start: date(2025, 6, 2), End: date(2025, 6, 4),
			PreDays: intp(0), PostDays: intp(0),
		})

		Convey("Then base rates apply unadjusted", func() {
			So(err, ShouldBeNil)
			So(b.CostOfLivingFactor, ShouldEqual, 1.0)
			So(b.Nights, ShouldEqual, 2)
			So(b.WeekdayNights, ShouldEqual, 2)
			So(b.LodgingCost, ShouldEqual, 300)
			So(b.MealsBasicCost, ShouldEqual, 180)
			So(b.MealsCost, ShouldEqual, 240)
			So(b.LocalTransportCost, ShouldEqual, 75)
			So(b.InternetAllowance, ShouldEqual, 30)
			So(b.IncidentalsAllowance, ShouldEqual, 45)
			So(b.TotalStipend, ShouldEqual, 1190)
		})

		Convey("Then the flight query spans the travel dates", func() {
			q := prices.Calls[0].Arguments.Get(1).(flightprice.Query)
			So(q.Outbound, ShouldEqual, date(2025, 6, 2))
			So(q.Inbound, ShouldEqual, date(2025, 6, 4))
		})
	})
}

func TestWeekendSplit(t *testing.T) {
	Convey("Given a five-night stay whose first night is a Friday", t, func() {
		prices := &MockPrices{}
		prices.On("Resolve", mock.Anything, mock.Anything).Return(model.PriceResult{Price: 700, Source: "scraper"})
		c := New(locations, prices,
			costofliving.New(indexSource{"Paris, FR": 120}),
			taxiTable{"Paris, FR": {BaseFare: 4, PerKm: 1.5, TypicalTripKm: 10}})

		b, err := c.Calculate(context.Background(), model.TripRequest{
			Origin: "Seoul, KR", Destination: "Paris, FR",
			Start: date(2025, 6, 7), End: date(2025, 6, 10),
			TicketPrice: 250,
		})

		Convey("Then three weekday and two weekend nights are billed", func() {
			So(err, ShouldBeNil)
			So(b.PreDays, ShouldEqual, 1)
			So(b.PostDays, ShouldEqual, 1)
			So(b.TotalDays, ShouldEqual, 6)
			So(b.Nights, ShouldEqual, 5)
			So(b.WeekdayNights, ShouldEqual, 3)
			So(b.WeekendNights, ShouldEqual, 2)
			So(b.LodgingCost, ShouldAlmostEqual, 846, 0.001)
		})

		Convey("Then the remaining components follow the rate card", func() {
			So(b.CostOfLivingFactor, ShouldAlmostEqual, 1.2, 1e-9)
			So(b.MealsBasicCost, ShouldAlmostEqual, 399.6, 0.001)
			So(b.MealsEntertainmentCost, ShouldEqual, 80)
			So(b.LocalTransportCost, ShouldAlmostEqual, 273.6, 0.001)
			So(b.InternetAllowance, ShouldEqual, 60)
			So(b.IncidentalsAllowance, ShouldEqual, 90)
			So(b.TicketPrice, ShouldEqual, 250)
			So(b.TotalStipend, ShouldAlmostEqual, 2699.2, 0.001)
			So(b.DistanceTier, ShouldEqual, "ultra-long-haul")
		})

		Convey("Then the flight query includes the buffer days", func() {
			q := prices.Calls[0].Arguments.Get(1).(flightprice.Query)
			So(q.Outbound, ShouldEqual, date(2025, 6, 6))
			So(q.Inbound, ShouldEqual, date(2025, 6, 11))
		})
	})
}

func TestRoundingOrder(t *testing.T) {
	Convey("Given trips with awkward fractional components", t, func() {
		prices := &MockPrices{}
		prices.On("Resolve", mock.Anything, mock.Anything).Return(model.PriceResult{Price: 333.333, Source: "api"})
		c := New(locations, prices,
			costofliving.New(indexSource{"Tokyo, JP": 97.3, "Paris, FR": 113.7}),
			taxiTable{"Tokyo, JP": {BaseFare: 3.33, PerKm: 2.71, TypicalTripKm: 7.7}})

		for _, dest := range []string{"Tokyo, JP", "Paris, FR"} {
			for span := 0; span < 9; span++ {
				b, err := c.Calculate(context.Background(), model.TripRequest{
					Origin: "Seoul, KR", Destination: dest,
					Start: date(2025, 3, 1), End: date(2025, 3, 1+span),
					TicketPrice: 99.999,
				})
				So(err, ShouldBeNil)

				for _, v := range []float64{b.FlightCost, b.LodgingCost, b.MealsCost, b.LocalTransportCost,
					b.TicketPrice, b.InternetAllowance, b.IncidentalsAllowance, b.TotalStipend} {
					So(hasCents(v), ShouldBeTrue)
				}
				So(b.TotalStipend, ShouldEqual, round2(componentSum(b)))
			}
		}
	})
}

func TestTransportFallbacks(t *testing.T) {
	Convey("Given a taxi table that fails", t, func() {
		prices := &MockPrices{}
		prices.On("Resolve", mock.Anything, mock.Anything).Return(model.PriceResult{Price: 1, Source: "api"})
		c := New(locations, prices, costofliving.New(indexSource{"Tokyo, JP": 200}), failingTaxis{})

		b, err := c.Calculate(context.Background(), model.TripRequest{
			Origin: "Seoul, KR", Destination: "Tokyo, JP", Start: date(2025, 6, 2), PreDays: intp(0), PostDays: intp(0),
		})

		Convey("Then the flat rate scaled by the factor applies", func() {
			So(err, ShouldBeNil)
			So(b.End, ShouldEqual, b.Start)
			So(b.LocalTransportCost, ShouldEqual, 50)
		})
	})
}

func TestInvalidTrips(t *testing.T) {
	Convey("Given malformed requests", t, func() {
		prices := &MockPrices{}
		c := New(locations, prices, costofliving.New(indexSource{}), nil)
		ctx := context.Background()

		cases := map[string]model.TripRequest{
			"missing origin":      {Destination: "Tokyo, JP", Start: date(2025, 1, 1)},
			"blank destination":   {Origin: "Seoul, KR", Destination: "  ", Start: date(2025, 1, 1)},
			"missing start":       {Origin: "Seoul, KR", Destination: "Tokyo, JP"},
			"end before start":    {Origin: "Seoul, KR", Destination: "Tokyo, JP", Start: date(2025, 1, 5), End: date(2025, 1, 4)},
			"negative buffer":     {Origin: "Seoul, KR", Destination: "Tokyo, JP", Start: date(2025, 1, 1), PreDays: intp(-1)},
			"negative ticket fee": {Origin: "Seoul, KR", Destination: "Tokyo, JP", Start: date(2025, 1, 1), TicketPrice: -10},
		}

		for name, trip := range cases {
			_, err := c.Calculate(ctx, trip)
			So(errors.Is(err, ErrInvalidTrip), ShouldBeTrue)
			So(err.Error(), ShouldNotBeEmpty)
			_ = name
		}

		Convey("Then no external call was made", func() {
			prices.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})
	})
}

func TestBreakdownCache(t *testing.T) {
	Convey("Given a calculator with a breakdown store", t, func() {
		ctx := context.Background()
		store := cache.New[model.StipendBreakdown](filepath.Join(t.TempDir(), "stipend.json"))
		prices := &MockPrices{}
		prices.On("Resolve", mock.Anything, mock.Anything).Return(model.PriceResult{Price: 420, Source: "api"})
		trip := model.TripRequest{ConferenceName: "TOKEN2049", Origin: "Seoul, KR", Destination: "Tokyo, JP", Start: date(2025, 9, 30), End: date(2025, 10, 2)}

		c := New(locations, prices, costofliving.New(indexSource{}), nil, WithStore(store), WithVersion("v4"))

		first, err := c.Calculate(ctx, trip)
		So(err, ShouldBeNil)
		second, err := c.Calculate(ctx, trip)
		So(err, ShouldBeNil)

		Convey("Then the second call is served from the store", func() {
			So(second, ShouldResemble, first)
			prices.AssertNumberOfCalls(t, "Resolve", 1)
			So(store.Len(), ShouldEqual, 1)
			_, ok := store.Get("stipend|v4|TOKEN2049|2025-09-30|2025-10-02|Seoul, KR|Tokyo, JP|1|1|0|false")
			So(ok, ShouldBeTrue)
		})

		Convey("Then explicit default buffer days share the stored breakdown", func() {
			same := trip
			same.PreDays, same.PostDays = intp(1), intp(1)
			_, err := c.Calculate(ctx, same)
			So(err, ShouldBeNil)
			prices.AssertNumberOfCalls(t, "Resolve", 1)
		})

		Convey("When the ticket price differs", func() {
			priced := trip
			priced.TicketPrice = 999
			got, err := c.Calculate(ctx, priced)
			So(err, ShouldBeNil)

			Convey("Then the trip is priced on its own", func() {
				So(got.TicketPrice, ShouldEqual, 999)
				So(got.TotalStipend, ShouldAlmostEqual, first.TotalStipend+999, 0.001)
				So(store.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the buffer days differ", func() {
			longer := trip
			longer.PreDays = intp(5)
			got, err := c.Calculate(ctx, longer)
			So(err, ShouldBeNil)

			Convey("Then the days and total reflect the request", func() {
				So(got.PreDays, ShouldEqual, 5)
				So(got.TotalDays, ShouldEqual, first.TotalDays+4)
				So(got.TotalStipend, ShouldBeGreaterThan, first.TotalStipend)
				prices.AssertNumberOfCalls(t, "Resolve", 2)
			})
		})

		Convey("When the destination differs under the same conference name", func() {
			moved := trip
			moved.Destination = "Paris, FR"
			got, err := c.Calculate(ctx, moved)
			So(err, ShouldBeNil)

			Convey("Then the breakdown follows the new destination", func() {
				So(got.Destination, ShouldEqual, "Paris, FR")
				So(store.Len(), ShouldEqual, 2)
			})
		})

		Convey("Then bumping the version recalculates", func() {
			bumped := New(locations, prices, costofliving.New(indexSource{}), nil, WithStore(store), WithVersion("v5"))
			_, err := bumped.Calculate(ctx, trip)
			So(err, ShouldBeNil)
			prices.AssertNumberOfCalls(t, "Resolve", 2)
			So(store.Len(), ShouldEqual, 2)
		})
	})
}

type gatedPrices struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (g *gatedPrices) Resolve(context.Context, flightprice.Query) model.PriceResult {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	<-g.gate
	return model.PriceResult{Price: 100, Source: "api"}
}

func TestConcurrentIdenticalTrips(t *testing.T) {
	Convey("Given identical trips calculated concurrently", t, func() {
		prices := &gatedPrices{gate: make(chan struct{})}
		c := New(locations, prices, costofliving.New(indexSource{}), nil)
		trip := model.TripRequest{Origin: "Seoul, KR", Destination: "Tokyo, JP", Start: date(2025, 4, 1)}

		var wg sync.WaitGroup
		results := make([]model.StipendBreakdown, 5)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = c.Calculate(context.Background(), trip)
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(prices.gate)
		wg.Wait()

		Convey("Then they share one pipeline run", func() {
			So(prices.calls, ShouldEqual, 1)
			for _, r := range results {
				So(r.TotalStipend, ShouldEqual, results[0].TotalStipend)
			}
		})
	})
}
