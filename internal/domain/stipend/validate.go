package stipend

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/stipend/internal/domain/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalize validates trip and fills defaults. Dates are truncated to UTC days
// and a zero End means a one-day conference.
func normalize(trip model.TripRequest) (model.TripRequest, error) {
	trip.Origin = strings.TrimSpace(trip.Origin)
	trip.Destination = strings.TrimSpace(trip.Destination)

	if err := validate.Struct(trip); err != nil {
		return trip, fmt.Errorf("%w: %w", ErrInvalidTrip, err)
	}

	trip.Start = day(trip.Start)
	if trip.End.IsZero() {
		trip.End = trip.Start
	}
	trip.End = day(trip.End)
	if trip.End.Before(trip.Start) {
		return trip, fmt.Errorf("%w: end %s is before start %s", ErrInvalidTrip,
			trip.End.Format(time.DateOnly), trip.Start.Format(time.DateOnly))
	}
	return trip, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b; both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
