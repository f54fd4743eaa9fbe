package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/stipend/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 0.6)
			convey.So(cfg.FlightCacheTTL(), convey.ShouldEqual, 6*time.Hour)
			convey.So(cfg.DistanceRatePerKm, convey.ShouldEqual, 0.25)
			convey.So(cfg.LodgingWeekendMultiplier, convey.ShouldEqual, 0.85)
			convey.So(cfg.DefaultPreDays, convey.ShouldEqual, 1)
			convey.So(cfg.DefaultPostDays, convey.ShouldEqual, 1)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		ctx := context.Background()

		cases := map[string]func(*config.Config){
			"threshold above one":    func(c *config.Config) { c.FuzzyThreshold = 1.5 },
			"negative ttl":           func(c *config.Config) { c.FlightCacheTTLHours = -1 },
			"scraper without url":    func(c *config.Config) { c.ScraperEnabled = true },
			"api without secrets":    func(c *config.Config) { c.APIEnabled = true },
			"zero retries":           func(c *config.Config) { c.ScraperRetries = 0 },
			"zero reference index":   func(c *config.Config) { c.COLReferenceIndex = 0 },
			"negative buffer days":   func(c *config.Config) { c.DefaultPreDays = -2 },
			"non-positive queue":     func(c *config.Config) { c.BatchQueueSize = 0 },
			"negative distance rate": func(c *config.Config) { c.DistanceRatePerKm = -0.1 },
		}

		for name, mutate := range cases {
			cfg := config.New(ctx)
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
