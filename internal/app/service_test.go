package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/stipend/internal/app"
	"github.com/okian/stipend/internal/config"
	"github.com/okian/stipend/internal/domain/flightprice"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/internal/domain/stipend"
	"github.com/okian/stipend/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New(context.Background())
	cfg.CacheDir = t.TempDir()
	return cfg
}

func seoulToParis() model.TripRequest {
	return model.TripRequest{
		Origin:      "Seoul, KR",
		Destination: "Paris, FR",
		Start:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
		TicketPrice: 100,
	}
}

type stubFlightAPI struct {
	offers []flightprice.Offer
	calls  int
}

func (s *stubFlightAPI) Offers(_ context.Context, _ flightprice.OfferQuery) ([]flightprice.Offer, error) {
	s.calls++
	return s.offers, nil
}

func offer(total float64, carrier string) flightprice.Offer {
	return flightprice.Offer{
		Total:    total,
		Currency: "USD",
		Itineraries: []flightprice.Itinerary{
			{Segments: []flightprice.Segment{{CarrierCode: carrier}}},
		},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is created but not started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldBeFalse)
		})

		Convey("Then operations report that it is not started", func() {
			ctx := context.Background()
			_, err := svc.Calculate(ctx, seoulToParis())
			So(err, ShouldEqual, service.ErrNotStarted)

			_, err = svc.Submit(ctx, []model.TripRequest{seoulToParis()})
			So(err, ShouldEqual, service.ErrNotStarted)

			_, err = svc.Get("missing")
			So(err, ShouldEqual, service.ErrNotStarted)

			_, err = svc.Conferences(ctx)
			So(err, ShouldEqual, service.ErrNotStarted)

			m, ok := svc.Match(ctx, "Paris")
			So(ok, ShouldBeFalse)
			So(m.Method, ShouldEqual, model.MatchNone)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service over the embedded dataset", t, func() {
		svc := service.New(service.WithConfig(testConfig(t)), service.WithLogger(logger.Nop()))
		ctx := context.Background()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then it is marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["cacheEntries"], ShouldNotBeNil)
			})

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()

			Convey("Then it reports not started", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
				_, err := svc.Calculate(ctx, seoulToParis())
				So(err, ShouldEqual, service.ErrNotStarted)
			})

			Convey("Then stopping again is a no-op", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestService_Calculate(t *testing.T) {
	Convey("Given a started service with only the distance strategy", t, func() {
		svc := service.New(service.WithConfig(testConfig(t)), service.WithLogger(logger.Nop()))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When calculating a long-haul trip", func() {
			b, err := svc.Calculate(ctx, seoulToParis())

			Convey("Then the breakdown is priced by distance", func() {
				So(err, ShouldBeNil)
				So(b.FlightSource, ShouldContainSubstring, "distance estimate")
				So(b.FlightCost, ShouldBeGreaterThan, 0)
				So(b.LocalTrip, ShouldBeFalse)
				So(b.TicketPrice, ShouldEqual, 100)
				So(b.TotalStipend, ShouldBeGreaterThan, b.FlightCost)
			})

			Convey("Then it is kept in the breakdown cache", func() {
				entries := svc.GetStats()["cacheEntries"].(map[string]int)
				So(entries["breakdowns"], ShouldEqual, 1)
			})
		})

		Convey("When calculating a trip with origin and destination in the same city", func() {
			trip := seoulToParis()
			trip.Origin = "Paris"
			b, err := svc.Calculate(ctx, trip)

			Convey("Then no flight or lodging is included", func() {
				So(err, ShouldBeNil)
				So(b.LocalTrip, ShouldBeTrue)
				So(b.FlightCost, ShouldEqual, 0)
				So(b.LodgingCost, ShouldEqual, 0)
			})
		})

		Convey("When the trip is malformed", func() {
			trip := seoulToParis()
			trip.Origin = " "
			_, err := svc.Calculate(ctx, trip)

			Convey("Then the validation error surfaces", func() {
				So(errors.Is(err, stipend.ErrInvalidTrip), ShouldBeTrue)
			})
		})

		Convey("When matching free-text locations", func() {
			m, ok := svc.Match(ctx, "paris")

			Convey("Then the reference city is returned", func() {
				So(ok, ShouldBeTrue)
				So(m.Name, ShouldEqual, "Paris, FR")
			})
		})

		Convey("When listing conferences", func() {
			confs, err := svc.Conferences(ctx)

			Convey("Then the embedded conferences are returned by start date", func() {
				So(err, ShouldBeNil)
				So(len(confs), ShouldEqual, 8)
				for i := 1; i < len(confs); i++ {
					So(confs[i].Start.Before(confs[i-1].Start), ShouldBeFalse)
				}
			})
		})
	})
}

func TestService_FlightAPI(t *testing.T) {
	Convey("Given a started service with an injected flight offers API", t, func() {
		api := &stubFlightAPI{offers: []flightprice.Offer{offer(1000, "KE"), offer(1200, "AF")}}
		svc := service.New(
			service.WithConfig(testConfig(t)),
			service.WithLogger(logger.Nop()),
			service.WithFlightAPI(api),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When calculating a trip", func() {
			b, err := svc.Calculate(ctx, seoulToParis())

			Convey("Then the flight is priced from the offers", func() {
				So(err, ShouldBeNil)
				So(api.calls, ShouldEqual, 1)
				So(b.FlightSource, ShouldContainSubstring, "flight API")
				So(b.FlightCost, ShouldAlmostEqual, 1100, 0.01)
			})

			Convey("Then the same trip is answered from the cache", func() {
				_, err := svc.Calculate(ctx, seoulToParis())
				So(err, ShouldBeNil)
				So(api.calls, ShouldEqual, 1)
			})
		})
	})
}
