package model

import "time"

// StipendBreakdown is the itemized estimate for one trip. Costs are USD rounded to cents.
type StipendBreakdown struct {
	Conference     string    `json:"conference"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	ConferenceDays int       `json:"conference_days"`
	TotalDays      int       `json:"total_days"`
	Nights         int       `json:"nights"`
	WeekdayNights  int       `json:"weekday_nights"`
	WeekendNights  int       `json:"weekend_nights"`
	PreDays        int       `json:"pre_days"`
	PostDays       int       `json:"post_days"`
	LocalTrip      bool      `json:"local_trip"`
	DistanceKm     float64   `json:"distance_km"`
	DistanceTier   string    `json:"distance_tier"`

	FlightCost             float64 `json:"flight_cost"`
	FlightSource           string  `json:"flight_source"`
	LodgingCost            float64 `json:"lodging_cost"`
	MealsBasicCost         float64 `json:"meals_basic_cost"`
	MealsEntertainmentCost float64 `json:"meals_entertainment_cost"`
	MealsCost              float64 `json:"meals_cost"`
	LocalTransportCost     float64 `json:"local_transport_cost"`
	TicketPrice            float64 `json:"ticket_price"`
	InternetAllowance      float64 `json:"internet_allowance"`
	IncidentalsAllowance   float64 `json:"incidentals_allowance"`
	TotalStipend           float64 `json:"total_stipend"`

	CostOfLivingFactor float64       `json:"cost_of_living_factor"`
	OriginMatch        LocationMatch `json:"origin_match"`
	DestinationMatch   LocationMatch `json:"destination_match"`
	Version            string        `json:"version"`
	CalculatedAt       time.Time     `json:"calculated_at"`
}
