// Package metrics provides Prometheus metrics for the stipend estimation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for strategy attempts.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeCached  = "cached"
)

// Manager manages all Prometheus metrics for the stipend service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline metrics
	stipendsCalculated  prometheus.Counter
	calculationLatency  prometheus.Histogram
	localTrips          prometheus.Counter
	strategyAttempts    *prometheus.CounterVec
	strategyLatency     *prometheus.HistogramVec
	locationMatches     *prometheus.CounterVec
	unresolvedLocations prometheus.Counter

	// Cache metrics
	cacheLookups *prometheus.CounterVec
	cacheEntries *prometheus.GaugeVec
	cacheFlushes *prometheus.CounterVec

	// Batch metrics
	batchQueueSize     prometheus.Gauge
	batchJobsProcessed *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stipend",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 25, 100, 250, 1000, 5000, 15000, 60000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(base string) string {
	return m.metricPrefix + base
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.stipendsCalculated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stipends_calculated_total"),
		Help:        "Total number of stipend breakdowns assembled",
		ConstLabels: m.customLabels,
	})

	m.calculationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calculation_latency_milliseconds"),
		Help:        "End-to-end stipend calculation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.localTrips = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("local_trips_total"),
		Help:        "Trips whose origin resolved to the destination",
		ConstLabels: m.customLabels,
	})

	m.strategyAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("price_strategy_attempts_total"),
		Help:        "Flight price strategy attempts by strategy and outcome",
		ConstLabels: m.customLabels,
	}, []string{"strategy", "outcome"})

	m.strategyLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("price_strategy_latency_milliseconds"),
		Help:        "Flight price strategy latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"strategy"})

	m.locationMatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("location_matches_total"),
		Help:        "Resolved locations by match method",
		ConstLabels: m.customLabels,
	}, []string{"method"})

	m.unresolvedLocations = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unresolved_locations_total"),
		Help:        "Locations that fell back to the sentinel coordinates",
		ConstLabels: m.customLabels,
	})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "cache",
		Name:        m.name("lookups_total"),
		Help:        "Persistent cache lookups by cache name and result",
		ConstLabels: m.customLabels,
	}, []string{"cache", "result"})

	m.cacheEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "cache",
		Name:        m.name("entries"),
		Help:        "Entries held by each persistent cache (unbounded)",
		ConstLabels: m.customLabels,
	}, []string{"cache"})

	m.cacheFlushes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "cache",
		Name:        m.name("flushes_total"),
		Help:        "Cache flushes to disk by cache name and result",
		ConstLabels: m.customLabels,
	}, []string{"cache", "result"})

	m.batchQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "batch",
		Name:        m.name("queue_size"),
		Help:        "Trips waiting in the batch queue",
		ConstLabels: m.customLabels,
	})

	m.batchJobsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "batch",
		Name:        m.name("jobs_processed_total"),
		Help:        "Batch jobs processed by status",
		ConstLabels: m.customLabels,
	}, []string{"status"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Absorbed and surfaced errors by component and type",
		ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})
}

// RecordStipendCalculated counts an assembled breakdown and its latency.
func RecordStipendCalculated(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.stipendsCalculated.Inc()
	globalManager.calculationLatency.Observe(latencyMs)
}

// RecordLocalTrip counts a trip that needed no flight or lodging.
func RecordLocalTrip() {
	if !globalManager.enabled {
		return
	}
	globalManager.localTrips.Inc()
}

// RecordStrategyAttempt records one flight price strategy attempt.
func RecordStrategyAttempt(strategy, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.strategyAttempts.WithLabelValues(strategy, outcome).Inc()
	globalManager.strategyLatency.WithLabelValues(strategy).Observe(latencyMs)
}

// RecordLocationMatch counts a resolved location by match method.
func RecordLocationMatch(method string) {
	if !globalManager.enabled {
		return
	}
	globalManager.locationMatches.WithLabelValues(method).Inc()
}

// RecordUnresolvedLocation counts a sentinel fallback.
func RecordUnresolvedLocation() {
	if !globalManager.enabled {
		return
	}
	globalManager.unresolvedLocations.Inc()
}

// RecordCacheLookup records a hit or miss against a named cache.
func RecordCacheLookup(cache string, hit bool) {
	if !globalManager.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(cache, result).Inc()
}

// UpdateCacheEntries sets the current entry count of a named cache.
func UpdateCacheEntries(cache string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordCacheFlush records a flush attempt of a named cache.
func RecordCacheFlush(cache string, ok bool) {
	if !globalManager.enabled {
		return
	}
	result := OutcomeSuccess
	if !ok {
		result = OutcomeFailure
	}
	globalManager.cacheFlushes.WithLabelValues(cache, result).Inc()
}

// UpdateBatchQueueSize sets the batch backlog gauge.
func UpdateBatchQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchQueueSize.Set(float64(size))
}

// RecordBatchJob counts a processed batch job by final status.
func RecordBatchJob(status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchJobsProcessed.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry for metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
