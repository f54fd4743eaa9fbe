package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
)

const (
	queryCities      = `SELECT name, city, country_code, country_name, lat, lng FROM cities ORDER BY id`
	queryCity        = `SELECT lat, lng FROM cities WHERE name = ?`
	queryAirports    = `SELECT code, city, lat, lng FROM airports ORDER BY code`
	queryCOL         = `SELECT col_index FROM cost_of_living WHERE city = ?`
	queryTaxi        = `SELECT base_fare, per_km, typical_trip_km FROM taxi_rates WHERE city = ?`
	queryConferences = `SELECT id, name, location, start_date, end_date, ticket_price FROM conferences ORDER BY start_date, id`
)

// SQLStore reads reference data from a relational database.
type SQLStore struct {
	db  *sql.DB
	log logger.Logger
}

// SQLOption configures an SQLStore.
type SQLOption func(*SQLStore)

// WithSQLLogger sets the store's logger.
func WithSQLLogger(l logger.Logger) SQLOption {
	return func(s *SQLStore) { s.log = logger.OrNop(l) }
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, opts ...SQLOption) *SQLStore {
	s := &SQLStore{db: db, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenMySQL connects to a MySQL reference database and verifies it answers.
// Date columns are always parsed into time.Time.
func OpenMySQL(ctx context.Context, dsn string, opts ...SQLOption) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %w", ErrQuery, err)
	}
	cfg.ParseTime = true
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrQuery, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrQuery, err)
	}
	return NewSQLStore(db, opts...), nil
}

// Cities returns every city row.
func (s *SQLStore) Cities(ctx context.Context) ([]model.City, error) {
	rows, err := s.db.QueryContext(ctx, queryCities)
	if err != nil {
		return nil, fmt.Errorf("%w: cities: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.Name, &c.City, &c.CountryCode, &c.CountryName, &c.Coordinates.Lat, &c.Coordinates.Lng); err != nil {
			return nil, fmt.Errorf("%w: scan city: %w", ErrQuery, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: cities: %w", ErrQuery, err)
	}
	return out, nil
}

// CityCoordinates looks up a city by canonical name.
func (s *SQLStore) CityCoordinates(ctx context.Context, name string) (model.Coordinates, bool, error) {
	var c model.Coordinates
	err := s.db.QueryRowContext(ctx, queryCity, name).Scan(&c.Lat, &c.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Unresolved, false, nil
	}
	if err != nil {
		return model.Unresolved, false, fmt.Errorf("%w: city %q: %w", ErrQuery, name, err)
	}
	return c, true, nil
}

// Airports returns every airport row.
func (s *SQLStore) Airports(ctx context.Context) ([]model.Airport, error) {
	rows, err := s.db.QueryContext(ctx, queryAirports)
	if err != nil {
		return nil, fmt.Errorf("%w: airports: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.Airport
	for rows.Next() {
		var a model.Airport
		if err := rows.Scan(&a.Code, &a.City, &a.Coordinates.Lat, &a.Coordinates.Lng); err != nil {
			return nil, fmt.Errorf("%w: scan airport: %w", ErrQuery, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: airports: %w", ErrQuery, err)
	}
	return out, nil
}

// CostOfLiving returns the raw index for city.
func (s *SQLStore) CostOfLiving(ctx context.Context, city string) (float64, bool, error) {
	var v float64
	err := s.db.QueryRowContext(ctx, queryCOL, city).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: cost of living %q: %w", ErrQuery, city, err)
	}
	return v, true, nil
}

// TaxiRates returns local transport pricing for city.
func (s *SQLStore) TaxiRates(ctx context.Context, city string) (model.TaxiRate, bool, error) {
	var r model.TaxiRate
	err := s.db.QueryRowContext(ctx, queryTaxi, city).Scan(&r.BaseFare, &r.PerKm, &r.TypicalTripKm)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TaxiRate{}, false, nil
	}
	if err != nil {
		return model.TaxiRate{}, false, fmt.Errorf("%w: taxi rates %q: %w", ErrQuery, city, err)
	}
	return r, true, nil
}

// Conferences returns conferences ordered by start date.
func (s *SQLStore) Conferences(ctx context.Context) ([]model.Conference, error) {
	rows, err := s.db.QueryContext(ctx, queryConferences)
	if err != nil {
		return nil, fmt.Errorf("%w: conferences: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.Conference
	for rows.Next() {
		var c model.Conference
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Start, &c.End, &c.Ticket); err != nil {
			return nil, fmt.Errorf("%w: scan conference: %w", ErrQuery, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: conferences: %w", ErrQuery, err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.Warn(context.Background(), "closing reference database", logger.Error(err))
		return err
	}
	return nil
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
