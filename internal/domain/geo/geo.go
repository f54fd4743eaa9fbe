// Package geo computes great-circle distances and classifies them for reporting.
package geo

import (
	"math"
	"strings"

	"github.com/okian/stipend/internal/domain/model"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Distance tiers. They only label a breakdown and never change a price.
const (
	TierLocal         = "local"
	TierShortHaul     = "short-haul"
	TierMediumHaul    = "medium-haul"
	TierLongHaul      = "long-haul"
	TierUltraLongHaul = "ultra-long-haul"
)

const (
	shortHaulMaxKm  = 1500
	mediumHaulMaxKm = 4000
	longHaulMaxKm   = 8000
)

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b model.Coordinates) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Distance is Haversine except that an unresolved endpoint yields 0.
func Distance(a, b model.Coordinates) float64 {
	if a.IsUnresolved() || b.IsUnresolved() {
		return 0
	}
	return Haversine(a, b)
}

// Tier classifies a distance in kilometres.
func Tier(km float64) string {
	switch {
	case km <= 0:
		return TierLocal
	case km < shortHaulMaxKm:
		return TierShortHaul
	case km < mediumHaulMaxKm:
		return TierMediumHaul
	case km < longHaulMaxKm:
		return TierLongHaul
	default:
		return TierUltraLongHaul
	}
}

// IsLocalTrip reports whether origin and destination name the same place,
// either textually or by resolving to the same known coordinates.
func IsLocalTrip(originText, destText string, origin, dest model.Coordinates) bool {
	if o := Normalize(originText); o != "" && o == Normalize(destText) {
		return true
	}
	return !origin.IsUnresolved() && origin == dest
}

// Normalize lower-cases s, trims it, collapses whitespace, and spaces commas as ", ".
func Normalize(s string) string {
	parts := strings.Split(strings.ToLower(s), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
