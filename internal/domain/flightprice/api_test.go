package flightprice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	. "github.com/smartystreets/goconvey/convey"
)

func offer(total float64, carriers ...string) Offer {
	segs := make([]Segment, len(carriers))
	for i, c := range carriers {
		segs[i] = Segment{CarrierCode: c}
	}
	return Offer{Total: total, Currency: "USD", Itineraries: []Itinerary{{Segments: segs}}}
}

func TestAPIStrategy(t *testing.T) {
	Convey("Given an API strategy with known airports", t, func() {
		ctx := context.Background()
		q := testQuery()
		api := &MockFlightAPI{}
		locator := staticLocator{"Seoul, KR": "ICN", "Tokyo, JP": "HND"}
		s := NewAPIStrategy(api, locator, WithMaxPrice(2000), WithMaxOffers(5))

		matchQuery := mock.MatchedBy(func(oq OfferQuery) bool {
			return oq.Origin == "ICN" && oq.Destination == "HND" && oq.MaxPrice == 2000 && oq.Max == 5 && oq.Adults == 1
		})

		Convey("When offers mix alliance and budget carriers", func() {
			api.On("Offers", mock.Anything, matchQuery).Return([]Offer{
				offer(400, "KE", "KE"),
				offer(200, "7C"),
				offer(600, "OZ", "NH"),
				offer(100, "NH", "ZZ"),
			}, nil)

			Convey("Then only all-alliance offers are averaged", func() {
				res, err := s.Resolve(ctx, q)
				So(err, ShouldBeNil)
				So(res.Price, ShouldEqual, 500)
				So(res.Source, ShouldContainSubstring, "alliance carriers")
			})

			Convey("Then budget carriers count when the trip allows them", func() {
				q.IncludeBudgetCarriers = true
				res, err := s.Resolve(ctx, q)
				So(err, ShouldBeNil)
				So(res.Price, ShouldEqual, 325)
				So(res.Source, ShouldContainSubstring, "all carriers")
			})
		})

		Convey("When no offer survives the alliance filter", func() {
			api.On("Offers", mock.Anything, matchQuery).Return([]Offer{offer(150, "7C"), offer(250, "MM")}, nil)

			res, err := s.Resolve(ctx, q)

			Convey("Then the unfiltered set is used", func() {
				So(err, ShouldBeNil)
				So(res.Price, ShouldEqual, 200)
			})
		})

		Convey("When the operating carrier differs from the marketing carrier", func() {
			codeshare := Offer{Total: 500, Itineraries: []Itinerary{{Segments: []Segment{{CarrierCode: "KE", OperatingCarrierCode: "7C"}}}}}
			api.On("Offers", mock.Anything, matchQuery).Return([]Offer{codeshare, offer(300, "JL")}, nil)

			res, err := s.Resolve(ctx, q)
			So(err, ShouldBeNil)
			So(res.Price, ShouldEqual, 300)
		})

		Convey("When the API returns nothing usable", func() {
			api.On("Offers", mock.Anything, matchQuery).Return([]Offer{}, nil)
			_, err := s.Resolve(ctx, q)
			So(errors.Is(err, ErrNoOffers), ShouldBeTrue)
		})

		Convey("When the API fails", func() {
			api.On("Offers", mock.Anything, matchQuery).Return(nil, errors.New("401 unauthorized"))
			_, err := s.Resolve(ctx, q)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "401")
		})

		Convey("When a location has no airport", func() {
			q.Destination = "Zzzzqx"
			_, err := s.Resolve(ctx, q)
			So(errors.Is(err, ErrNoAirport), ShouldBeTrue)
			api.AssertNotCalled(t, "Offers", mock.Anything, mock.Anything)
		})
	})
}

func TestAlliances(t *testing.T) {
	Convey("Given carrier codes", t, func() {
		a, ok := AllianceOf("ke")
		So(ok, ShouldBeTrue)
		So(a, ShouldEqual, SkyTeam)

		a, _ = AllianceOf("NH")
		So(a, ShouldEqual, StarAlliance)

		a, _ = AllianceOf("BA")
		So(a, ShouldEqual, Oneworld)

		_, ok = AllianceOf("7C")
		So(ok, ShouldBeFalse)

		So(Offer{Total: 1}.allianceOperated(), ShouldBeFalse)
	})
}
