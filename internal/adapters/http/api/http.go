// Package api serves the stipend estimation HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/stipend/internal/adapters/mq/queue"
	"github.com/okian/stipend/internal/domain/batch"
	"github.com/okian/stipend/internal/domain/location"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/internal/domain/stipend"
	"github.com/okian/stipend/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Calculator computes one breakdown.
type Calculator interface {
	Calculate(ctx context.Context, trip model.TripRequest) (model.StipendBreakdown, error)
}

// Locations resolves free-text locations.
type Locations interface {
	Match(ctx context.Context, input string) (model.LocationMatch, bool)
}

// Batches accepts and reports batch jobs.
type Batches interface {
	Submit(ctx context.Context, trips []model.TripRequest) (model.Job, error)
	Get(id string) (model.Job, error)
}

// Conferences lists reference conferences.
type Conferences interface {
	Conferences(ctx context.Context) ([]model.Conference, error)
}

// Dependencies bundles what the handlers need.
type Dependencies struct {
	Calculator  Calculator
	Locations   Locations
	Batches     Batches
	Conferences Conferences
	Stats       StatsProvider
	Logger      logger.Logger
}

// Server wires HTTP routes for the business API.
type Server struct {
	health  *HealthHandler
	stats   *StatsHandler
	stipend *StipendHandler
	locs    *LocationHandler
	batch   *BatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	log := logger.OrNop(deps.Logger)
	return &Server{
		health:  NewHealthHandler(),
		stats:   NewStatsHandler(deps.Stats),
		stipend: &StipendHandler{calc: deps.Calculator, log: log},
		locs:    &LocationHandler{locations: deps.Locations},
		batch:   &BatchHandler{batches: deps.Batches, conferences: deps.Conferences, log: log},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.health.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
	mux.HandleFunc("POST /stipend", MetricsMiddleware(s.stipend.HandleCalculate, "stipend"))
	mux.HandleFunc("GET /locations/resolve", MetricsMiddleware(s.locs.HandleResolve, "locations"))
	mux.HandleFunc("POST /batch", MetricsMiddleware(s.batch.HandleSubmit, "batch"))
	mux.HandleFunc("GET /batch/{id}", MetricsMiddleware(s.batch.HandleGet, "batch_status"))
}

// tripRequest is the wire form of a trip. Dates are YYYY-MM-DD or RFC 3339.
type tripRequest struct {
	ConferenceID          string  `json:"conference_id"`
	ConferenceName        string  `json:"conference_name"`
	Origin                string  `json:"origin"`
	Destination           string  `json:"destination"`
	Start                 string  `json:"start"`
	End                   string  `json:"end"`
	PreDays               *int    `json:"pre_days"`
	PostDays              *int    `json:"post_days"`
	TicketPrice           float64 `json:"ticket_price"`
	IncludeBudgetCarriers bool    `json:"include_budget_carriers"`
}

func (r tripRequest) toModel() (model.TripRequest, error) {
	start, err := parseDate("start", r.Start, true)
	if err != nil {
		return model.TripRequest{}, err
	}
	end, err := parseDate("end", r.End, false)
	if err != nil {
		return model.TripRequest{}, err
	}
	return model.TripRequest{
		ConferenceID:          r.ConferenceID,
		ConferenceName:        r.ConferenceName,
		Origin:                r.Origin,
		Destination:           r.Destination,
		Start:                 start,
		End:                   end,
		PreDays:               r.PreDays,
		PostDays:              r.PostDays,
		TicketPrice:           r.TicketPrice,
		IncludeBudgetCarriers: r.IncludeBudgetCarriers,
	}, nil
}

func parseDate(field, v string, required bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			return time.Time{}, fmt.Errorf("%w: missing %s", ErrBadRequest, field)
		}
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrBadRequest, field)
	}
	return t, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain sentinels to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, stipend.ErrInvalidTrip), errors.Is(err, batch.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, location.ErrNotFound), errors.Is(err, batch.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, queue.ErrFull), errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
