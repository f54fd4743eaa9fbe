// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case keys so env vars map one-to-one (STIPEND_FUZZY_THRESHOLD -> fuzzy_threshold).
// - Provide New(ctx) initializer to build a Config with defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CacheDir holds the persistent cache files.
	CacheDir string `koanf:"cache_dir"`

	// ReferenceDSN selects the MySQL reference store. Empty uses the embedded dataset.
	ReferenceDSN string `koanf:"reference_dsn"`

	// FuzzyThreshold is the minimum similarity accepted by the location resolver.
	FuzzyThreshold float64 `koanf:"fuzzy_threshold"`

	// Version tokens embedded in cache keys; bump to invalidate.
	FlightStrategyVersion string `koanf:"flight_strategy_version"`
	BreakdownVersion      string `koanf:"breakdown_version"`

	// FlightCacheTTLHours bounds the age of cached flight prices.
	FlightCacheTTLHours int `koanf:"flight_cache_ttl_hours"`

	// Scraper strategy.
	ScraperEnabled       bool   `koanf:"scraper_enabled"`
	ScraperSearchURL     string `koanf:"scraper_search_url"`
	ScraperHeadless      bool   `koanf:"scraper_headless"`
	ScraperRetries       int    `koanf:"scraper_retries"`
	ScraperBackoffMS     int    `koanf:"scraper_backoff_ms"`
	ScraperTimeoutMS     int    `koanf:"scraper_timeout_ms"`
	ScraperMinIntervalMS int    `koanf:"scraper_min_interval_ms"`

	// Flight offers API strategy.
	APIEnabled           bool    `koanf:"api_enabled"`
	APIBaseURL           string  `koanf:"api_base_url"`
	APITokenURL          string  `koanf:"api_token_url"`
	APIClientID          string  `koanf:"api_client_id"`
	APIClientSecret      string  `koanf:"api_client_secret"`
	APITimeoutMS         int     `koanf:"api_timeout_ms"`
	APIMaxPrice          int     `koanf:"api_max_price"`
	APIMaxOffers         int     `koanf:"api_max_offers"`
	APIRequestsPerSecond float64 `koanf:"api_requests_per_second"`

	// DistanceRatePerKm prices the distance fallback (USD per km, round trip).
	DistanceRatePerKm float64 `koanf:"distance_rate_per_km"`

	// Stipend rates in USD before the cost-of-living factor.
	LodgingWeekdayRate       float64 `koanf:"lodging_weekday_rate"`
	LodgingWeekendMultiplier float64 `koanf:"lodging_weekend_multiplier"`
	MealsDailyRate           float64 `koanf:"meals_daily_rate"`
	MealsFullRateDays        int     `koanf:"meals_full_rate_days"`
	MealsTaperFactor         float64 `koanf:"meals_taper_factor"`
	EntertainmentPerDay      float64 `koanf:"entertainment_per_day"`
	TransportFlatPerDay      float64 `koanf:"transport_flat_per_day"`
	TransportTripsPerDay     float64 `koanf:"transport_trips_per_day"`
	InternetPerDay           float64 `koanf:"internet_per_day"`
	IncidentalsPerDay        float64 `koanf:"incidentals_per_day"`

	// COLReferenceIndex is the cost-of-living index that maps to a factor of 1.0.
	COLReferenceIndex float64 `koanf:"col_reference_index"`

	// Default buffer days around the conference.
	DefaultPreDays  int `koanf:"default_pre_days"`
	DefaultPostDays int `koanf:"default_post_days"`

	// BatchQueueSize bounds the in-memory batch queue.
	BatchQueueSize int `koanf:"batch_queue_size"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9080",
		CacheDir:                 ".cache",
		FuzzyThreshold:           0.6,
		FlightStrategyVersion:    "v1",
		BreakdownVersion:         "v1",
		FlightCacheTTLHours:      6,
		ScraperEnabled:           false,
		ScraperHeadless:          true,
		ScraperRetries:           3,
		ScraperBackoffMS:         2000,
		ScraperTimeoutMS:         45_000,
		ScraperMinIntervalMS:     1000,
		APIEnabled:               false,
		APIBaseURL:               "https://test.api.amadeus.com",
		APITokenURL:              "https://test.api.amadeus.com/v1/security/oauth2/token",
		APITimeoutMS:             10_000,
		APIMaxPrice:              5000,
		APIMaxOffers:             10,
		APIRequestsPerSecond:     5,
		DistanceRatePerKm:        0.25,
		LodgingWeekdayRate:       150,
		LodgingWeekendMultiplier: 0.85,
		MealsDailyRate:           60,
		MealsFullRateDays:        3,
		MealsTaperFactor:         0.85,
		EntertainmentPerDay:      20,
		TransportFlatPerDay:      25,
		TransportTripsPerDay:     2,
		InternetPerDay:           10,
		IncidentalsPerDay:        15,
		COLReferenceIndex:        100,
		DefaultPreDays:           1,
		DefaultPostDays:          1,
		BatchQueueSize:           1024,
	}
}

// FlightCacheTTL returns the flight cache TTL as a duration.
func (c *Config) FlightCacheTTL() time.Duration {
	return time.Duration(c.FlightCacheTTLHours) * time.Hour
}

// Validate checks ranges that would otherwise surface as nonsense estimates.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1:
		return fmt.Errorf("%w: fuzzy_threshold must be within [0,1], got %v", ErrInvalidConfig, c.FuzzyThreshold)
	case c.FlightCacheTTLHours < 0:
		return fmt.Errorf("%w: flight_cache_ttl_hours must not be negative", ErrInvalidConfig)
	case c.ScraperEnabled && c.ScraperSearchURL == "":
		return fmt.Errorf("%w: scraper_search_url is required when the scraper is enabled", ErrInvalidConfig)
	case c.APIEnabled && (c.APIClientID == "" || c.APIClientSecret == ""):
		return fmt.Errorf("%w: api_client_id and api_client_secret are required when the API is enabled", ErrInvalidConfig)
	case c.ScraperRetries < 1:
		return fmt.Errorf("%w: scraper_retries must be at least 1", ErrInvalidConfig)
	case c.DistanceRatePerKm < 0:
		return fmt.Errorf("%w: distance_rate_per_km must not be negative", ErrInvalidConfig)
	case c.COLReferenceIndex <= 0:
		return fmt.Errorf("%w: col_reference_index must be positive", ErrInvalidConfig)
	case c.DefaultPreDays < 0 || c.DefaultPostDays < 0:
		return fmt.Errorf("%w: default buffer days must not be negative", ErrInvalidConfig)
	case c.BatchQueueSize <= 0:
		return fmt.Errorf("%w: batch_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
