package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register the pipeline collectors", func() {
				So(manager, ShouldNotBeNil)
				manager.strategyAttempts.WithLabelValues("scraper", OutcomeSuccess).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("travel"),
				WithSubsystem("estimator"),
				WithMetricPrefix("test_"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names carry the namespace, subsystem, and prefix", func() {
				manager.stipendsCalculated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "travel_estimator_test_") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording strategy attempts", func() {
			before := testutil.ToFloat64(globalManager.strategyAttempts.WithLabelValues("distance", OutcomeSuccess))
			RecordStrategyAttempt("distance", OutcomeSuccess, 0.2)

			Convey("Then the labelled counter increments", func() {
				after := testutil.ToFloat64(globalManager.strategyAttempts.WithLabelValues("distance", OutcomeSuccess))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording cache lookups", func() {
			before := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("flight", "hit"))
			RecordCacheLookup("flight", true)
			RecordCacheLookup("flight", false)

			Convey("Then hits and misses are split", func() {
				So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("flight", "hit"))-before, ShouldEqual, 1)
			})
		})

		Convey("When setting gauges", func() {
			UpdateCacheEntries("stipend", 7)
			UpdateBatchQueueSize(3)

			Convey("Then they report the latest value", func() {
				So(testutil.ToFloat64(globalManager.cacheEntries.WithLabelValues("stipend")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.batchQueueSize), ShouldEqual, 3)
			})
		})

		Convey("Then the remaining helpers do not panic", func() {
			So(func() {
				RecordStipendCalculated(12)
				RecordLocalTrip()
				RecordLocationMatch("fuzzy")
				RecordUnresolvedLocation()
				RecordCacheFlush("flight", false)
				RecordBatchJob("done")
				RecordHTTPRequest("stipend", "POST", "200")
				RecordHTTPRequestDuration("stipend", "POST", "200", 4)
				RecordErrorByComponent("scraper", "timeout")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
