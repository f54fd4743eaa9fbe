package flightprice

import (
	"context"
	"fmt"

	"github.com/okian/stipend/internal/domain/geo"
	"github.com/okian/stipend/internal/domain/model"
)

// DefaultRatePerKm is the round-trip USD price per great-circle kilometre.
const DefaultRatePerKm = 0.25

// DistanceStrategy prices a trip from its great-circle distance. It never fails.
type DistanceStrategy struct {
	ratePerKm float64
}

// NewDistanceStrategy creates a DistanceStrategy. A negative rate uses the default.
func NewDistanceStrategy(ratePerKm float64) *DistanceStrategy {
	if ratePerKm < 0 {
		ratePerKm = DefaultRatePerKm
	}
	return &DistanceStrategy{ratePerKm: ratePerKm}
}

// Name implements Strategy.
func (d *DistanceStrategy) Name() string { return "distance" }

// Cacheable reports false; the estimate is free to recompute.
func (d *DistanceStrategy) Cacheable() bool { return false }

// Resolve implements Strategy.
func (d *DistanceStrategy) Resolve(_ context.Context, q Query) (model.PriceResult, error) {
	km := geo.Distance(q.OriginCoords, q.DestinationCoords)
	return model.PriceResult{
		Price:  km * d.ratePerKm,
		Source: fmt.Sprintf("distance estimate: %.0f km x %.2f USD/km", km, d.ratePerKm),
	}, nil
}
