package batchrun

import (
	"time"

	"github.com/okian/stipend/internal/domain/model"
)

// Config holds configuration for one batch run.
type Config struct {
	Origin      string   // Home location every trip starts from
	Conferences []string // Conference IDs to include; empty means all
	OutputFile  string   // JSON lines destination
	Verbose     bool     // Log every trip as it finishes
}

// Line is one JSON line of output.
type Line struct {
	ConferenceID string                  `json:"conference_id"`
	Conference   string                  `json:"conference"`
	Breakdown    *model.StipendBreakdown `json:"breakdown,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Trips     int
	Succeeded int
	Failed    int
	Total     float64 // Sum of successful stipends
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
