// Package refdata serves the reference datasets the pipeline reads: cities,
// airports, cost-of-living indices, taxi rates, and conferences.
package refdata

import (
	"context"

	"github.com/okian/stipend/internal/domain/model"
)

// Store provides read access to reference data.
// Lookups that find nothing return ok=false with a nil error.
type Store interface {
	Cities(ctx context.Context) ([]model.City, error)
	// CityCoordinates returns the coordinates of a canonical city name.
	CityCoordinates(ctx context.Context, name string) (model.Coordinates, bool, error)
	Airports(ctx context.Context) ([]model.Airport, error)
	CostOfLiving(ctx context.Context, city string) (float64, bool, error)
	TaxiRates(ctx context.Context, city string) (model.TaxiRate, bool, error)
	Conferences(ctx context.Context) ([]model.Conference, error)
	Close() error
}
