// Package batchrun computes stipends for the reference conferences one after
// another and writes each result as a JSON line.
package batchrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
)

// Calculator computes one breakdown.
type Calculator interface {
	Calculate(ctx context.Context, trip model.TripRequest) (model.StipendBreakdown, error)
}

// Conferences lists the reference conferences.
type Conferences interface {
	Conferences(ctx context.Context) ([]model.Conference, error)
}

// Run calculates a trip from config.Origin to every selected conference and
// writes one Line per conference to w. A failed trip is written with its error
// and does not stop the run; a write failure does.
func Run(ctx context.Context, config *Config, src Conferences, calc Calculator, w io.Writer, log logger.Logger) (Stats, error) {
	log = logger.OrNop(log)
	stats := Stats{StartTime: time.Now()}

	if strings.TrimSpace(config.Origin) == "" {
		return stats, ErrNoOrigin
	}

	confs, err := src.Conferences(ctx)
	if err != nil {
		return stats, fmt.Errorf("list conferences: %w", err)
	}
	confs, err = selectConferences(confs, config.Conferences)
	if err != nil {
		return stats, err
	}

	log.Info(ctx, "starting stipend batch",
		logger.String("origin", config.Origin),
		logger.Int("conferences", len(confs)))

	enc := json.NewEncoder(w)
	for _, c := range confs {
		if err := ctx.Err(); err != nil {
			return finish(stats), err
		}

		line := Line{ConferenceID: c.ID, Conference: c.Name}
		b, err := calc.Calculate(ctx, c.Trip(config.Origin))
		stats.Trips++
		if err != nil {
			stats.Failed++
			line.Error = err.Error()
			log.Warn(ctx, "trip failed", logger.String("conference", c.ID), logger.Error(err))
		} else {
			stats.Succeeded++
			stats.Total += b.TotalStipend
			line.Breakdown = &b
			if config.Verbose {
				log.Info(ctx, "trip done",
					logger.String("conference", c.ID),
					logger.Float64("total", b.TotalStipend),
					logger.String("flightSource", b.FlightSource))
			}
		}

		if err := enc.Encode(line); err != nil {
			return finish(stats), fmt.Errorf("write %s: %w", c.ID, err)
		}
	}

	stats = finish(stats)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// selectConferences keeps confs in their order, restricted to ids when given.
func selectConferences(confs []model.Conference, ids []string) ([]model.Conference, error) {
	if len(ids) == 0 {
		return confs, nil
	}
	byID := make(map[string]model.Conference, len(confs))
	for _, c := range confs {
		byID[c.ID] = c
	}
	out := make([]model.Conference, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownConference, id)
		}
		out = append(out, c)
	}
	return out, nil
}

func finish(stats Stats) Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	return stats
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("trips", stats.Trips),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Float64("totalStipend", stats.Total),
		logger.Duration("duration", stats.Duration))
}
