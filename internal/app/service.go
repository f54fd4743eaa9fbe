// Package service wires the stipend pipeline, its caches, and the batch worker
// into one object with an explicit lifecycle.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/stipend/internal/adapters/cache"
	"github.com/okian/stipend/internal/adapters/flightapi"
	"github.com/okian/stipend/internal/adapters/mq/queue"
	"github.com/okian/stipend/internal/adapters/mq/worker"
	"github.com/okian/stipend/internal/adapters/refdata"
	"github.com/okian/stipend/internal/adapters/scraper"
	"github.com/okian/stipend/internal/config"
	"github.com/okian/stipend/internal/domain/batch"
	"github.com/okian/stipend/internal/domain/costofliving"
	"github.com/okian/stipend/internal/domain/flightprice"
	"github.com/okian/stipend/internal/domain/location"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/internal/domain/stipend"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

const defaultShutdownTimeout = 30 * time.Second

// Cache names double as file names under the cache directory.
const (
	flightCacheName    = "flight_prices"
	colCacheName       = "cost_of_living"
	breakdownCacheName = "breakdowns"
)

// Service implements the API dependencies for the stipend system.
type Service struct {
	mu sync.RWMutex

	cfg             *config.Config
	shutdownTimeout time.Duration

	// Injected collaborators; built from cfg when nil.
	store     refdata.Store
	browser   flightprice.Browser
	flightAPI flightprice.FlightAPI

	// Owned components
	chrome     *scraper.Chrome
	flights    *cache.Cache[model.PriceResult]
	col        *cache.Cache[float64]
	breakdowns *cache.Cache[model.StipendBreakdown]
	locations  *location.Resolver
	calc       *stipend.Calculator
	queue      *queue.InMemoryQueue
	tracker    *batch.Tracker
	worker     *worker.InMemoryWorker
	cancelRun  context.CancelFunc

	// State
	started   bool
	ownsStore bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults to config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore supplies the reference data store. The caller keeps ownership.
func WithStore(store refdata.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithBrowser enables the scraper strategy over b instead of launching Chrome.
func WithBrowser(b flightprice.Browser) Option {
	return func(s *Service) {
		s.browser = b
	}
}

// WithFlightAPI enables the API strategy over api instead of the configured client.
func WithFlightAPI(api flightprice.FlightAPI) Option {
	return func(s *Service) {
		s.flightAPI = api
	}
}

// WithShutdownTimeout bounds how long Stop waits for queued trips.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New constructs a new Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:             config.New(context.Background()),
		shutdownTimeout: defaultShutdownTimeout,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and caches, builds the pipeline, and starts the batch worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg

	s.logger.Info(ctx, "starting stipend service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store, s.ownsStore = store, true
	}

	s.openCaches(ctx)

	s.locations = location.New(s.store,
		location.WithThreshold(cfg.FuzzyThreshold),
		location.WithLogger(s.logger.Named("location")),
	)
	adjuster := costofliving.New(s.store,
		costofliving.WithStore(s.col),
		costofliving.WithVersion(cfg.BreakdownVersion),
		costofliving.WithReferenceIndex(cfg.COLReferenceIndex),
		costofliving.WithLogger(s.logger.Named("costofliving")),
	)
	prices := flightprice.NewResolver(s.strategies(ctx),
		flightprice.WithStore(s.flights),
		flightprice.WithTTL(cfg.FlightCacheTTL()),
		flightprice.WithVersion(cfg.FlightStrategyVersion),
		flightprice.WithLogger(s.logger.Named("flightprice")),
	)
	s.calc = stipend.New(s.locations, prices, adjuster, s.store,
		stipend.WithRates(ratesFromConfig(cfg)),
		stipend.WithDefaultBufferDays(cfg.DefaultPreDays, cfg.DefaultPostDays),
		stipend.WithStore(s.breakdowns),
		stipend.WithVersion(cfg.BreakdownVersion),
		stipend.WithLogger(s.logger.Named("stipend")),
	)

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.BatchQueueSize))
	s.tracker = batch.NewTracker(s.calc, s.queue, batch.WithLogger(s.logger.Named("batch")))
	s.worker = worker.NewInMemoryWorker(s.queue, s.calc, s.tracker, worker.WithLogger(s.logger.Named("worker")))

	// The worker outlives the start context; Stop drains it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelRun = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "stipend service started",
		logger.Bool("scraper", s.browser != nil),
		logger.Bool("api", s.flightAPI != nil),
		logger.Int("queueSize", cfg.BatchQueueSize),
		logger.String("cacheDir", cfg.CacheDir),
	)

	return nil
}

func (s *Service) openStore(ctx context.Context) (refdata.Store, error) {
	if s.cfg.ReferenceDSN == "" {
		s.logger.Info(ctx, "using embedded reference dataset")
		return refdata.NewSeededStore(), nil
	}
	store, err := refdata.OpenMySQL(ctx, s.cfg.ReferenceDSN, refdata.WithSQLLogger(s.logger.Named("refdata")))
	if err != nil {
		return nil, fmt.Errorf("open reference store: %w", err)
	}
	s.logger.Info(ctx, "using mysql reference store")
	return store, nil
}

// openCaches loads every cache. Load failures already degrade to an empty cache.
func (s *Service) openCaches(ctx context.Context) {
	dir := s.cfg.CacheDir
	log := s.logger.Named("cache")
	s.flights = cache.New[model.PriceResult](filepath.Join(dir, flightCacheName+".json"), cache.WithLogger(log))
	s.col = cache.New[float64](filepath.Join(dir, colCacheName+".json"), cache.WithLogger(log))
	s.breakdowns = cache.New[model.StipendBreakdown](filepath.Join(dir, breakdownCacheName+".json"), cache.WithLogger(log))

	_ = s.flights.Open(ctx)
	_ = s.col.Open(ctx)
	_ = s.breakdowns.Open(ctx)
}

// strategies builds the flight price chain: scraper, then API, then distance.
func (s *Service) strategies(ctx context.Context) []flightprice.Strategy {
	cfg := s.cfg
	var out []flightprice.Strategy

	if s.browser == nil && cfg.ScraperEnabled {
		chrome := scraper.New(cfg.ScraperSearchURL,
			scraper.WithHeadless(cfg.ScraperHeadless),
			scraper.WithLogger(s.logger.Named("chrome")),
		)
		if err := chrome.Start(ctx); err != nil {
			s.logger.Warn(ctx, "browser unavailable; scraper strategy disabled", logger.Error(err))
			metrics.RecordErrorByComponent("scraper", "start")
		} else {
			s.chrome, s.browser = chrome, chrome
		}
	}
	if s.browser != nil {
		sc := flightprice.NewBrowserScraper(s.browser,
			flightprice.WithRetries(cfg.ScraperRetries),
			flightprice.WithBackoff(ms(cfg.ScraperBackoffMS)),
			flightprice.WithAttemptTimeout(ms(cfg.ScraperTimeoutMS)),
			flightprice.WithMinInterval(ms(cfg.ScraperMinIntervalMS)),
			flightprice.WithScraperLogger(s.logger.Named("scraper")),
		)
		out = append(out, flightprice.NewScraperStrategy(sc))
	}

	if s.flightAPI == nil && cfg.APIEnabled {
		s.flightAPI = flightapi.New(cfg.APIBaseURL,
			flightapi.Credentials{
				ClientID:     cfg.APIClientID,
				ClientSecret: cfg.APIClientSecret,
				TokenURL:     cfg.APITokenURL,
			},
			flightapi.WithTimeout(ms(cfg.APITimeoutMS)),
			flightapi.WithRateLimit(cfg.APIRequestsPerSecond),
			flightapi.WithLogger(s.logger.Named("flightapi")),
		)
	}
	if s.flightAPI != nil {
		out = append(out, flightprice.NewAPIStrategy(s.flightAPI, s.locations,
			flightprice.WithMaxPrice(cfg.APIMaxPrice),
			flightprice.WithMaxOffers(cfg.APIMaxOffers),
		))
	}

	return append(out, flightprice.NewDistanceStrategy(cfg.DistanceRatePerKm))
}

func ratesFromConfig(cfg *config.Config) stipend.Rates {
	return stipend.Rates{
		LodgingWeekday:       cfg.LodgingWeekdayRate,
		WeekendMultiplier:    cfg.LodgingWeekendMultiplier,
		MealsDaily:           cfg.MealsDailyRate,
		MealsFullRateDays:    cfg.MealsFullRateDays,
		MealsTaper:           cfg.MealsTaperFactor,
		EntertainmentPerDay:  cfg.EntertainmentPerDay,
		TransportFlatPerDay:  cfg.TransportFlatPerDay,
		TransportTripsPerDay: cfg.TransportTripsPerDay,
		InternetPerDay:       cfg.InternetPerDay,
		IncidentalsPerDay:    cfg.IncidentalsPerDay,
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Stop drains the batch worker, flushes caches, and releases the browser and store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping stipend service...")

	// Close the queue so the worker drains what is left, then wait for it.
	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "batch worker did not drain", logger.Error(err))
	}
	cancel()
	s.cancelRun()

	_ = s.flights.Close(ctx)
	_ = s.col.Close(ctx)
	_ = s.breakdowns.Close(ctx)

	if s.chrome != nil {
		s.chrome.Stop()
		s.chrome, s.browser = nil, nil
	}

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "reference store close failed", logger.Error(err))
		}
		s.store, s.ownsStore = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "stipend service stopped")
}

func (s *Service) running() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Calculate returns the stipend breakdown for trip.
func (s *Service) Calculate(ctx context.Context, trip model.TripRequest) (model.StipendBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return model.StipendBreakdown{}, err
	}
	return s.calc.Calculate(ctx, trip)
}

// Match resolves free-text location input against the reference data.
func (s *Service) Match(ctx context.Context, input string) (model.LocationMatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.running() != nil {
		return model.LocationMatch{Input: input, Coordinates: model.Unresolved, Method: model.MatchNone}, false
	}
	return s.locations.Match(ctx, input)
}

// Submit queues trips as one batch job.
func (s *Service) Submit(ctx context.Context, trips []model.TripRequest) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return model.Job{}, err
	}
	return s.tracker.Submit(ctx, trips)
}

// Get returns a snapshot of a batch job.
func (s *Service) Get(id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return model.Job{}, err
	}
	return s.tracker.Get(id)
}

// Conferences lists the reference conferences ordered by start date.
func (s *Service) Conferences(ctx context.Context) ([]model.Conference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.Conferences(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"queueSize": s.cfg.BatchQueueSize,
	}

	if s.started {
		byStatus, pending := s.tracker.Counts()
		jobs := make(map[string]int, len(byStatus))
		for status, n := range byStatus {
			jobs[string(status)] = n
		}
		queueLen := s.queue.Len()

		stats["queueLength"] = queueLen
		stats["pendingTrips"] = pending
		stats["jobs"] = jobs
		stats["cacheEntries"] = map[string]int{
			flightCacheName:    s.flights.Len(),
			colCacheName:       s.col.Len(),
			breakdownCacheName: s.breakdowns.Len(),
		}

		// Update metrics
		metrics.UpdateBatchQueueSize(queueLen)
		metrics.UpdateCacheEntries(flightCacheName, s.flights.Len())
		metrics.UpdateCacheEntries(colCacheName, s.col.Len())
		metrics.UpdateCacheEntries(breakdownCacheName, s.breakdowns.Len())
	}

	return stats
}
