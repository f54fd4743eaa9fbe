package stipend

import "math"

// Rates are the base USD amounts before the cost-of-living factor.
type Rates struct {
	LodgingWeekday       float64
	WeekendMultiplier    float64
	MealsDaily           float64
	MealsFullRateDays    int
	MealsTaper           float64
	EntertainmentPerDay  float64
	TransportFlatPerDay  float64
	TransportTripsPerDay float64
	InternetPerDay       float64
	IncidentalsPerDay    float64
}

// DefaultRates returns the standard rate card.
func DefaultRates() Rates {
	return Rates{
		LodgingWeekday:       150,
		WeekendMultiplier:    0.85,
		MealsDaily:           60,
		MealsFullRateDays:    3,
		MealsTaper:           0.85,
		EntertainmentPerDay:  20,
		TransportFlatPerDay:  25,
		TransportTripsPerDay: 2,
		InternetPerDay:       10,
		IncidentalsPerDay:    15,
	}
}

// round2 rounds half away from zero to cents.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
