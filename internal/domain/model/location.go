package model

import "fmt"

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Unresolved is the sentinel returned when a location cannot be resolved.
var Unresolved = Coordinates{}

// IsUnresolved reports whether c is the sentinel.
func (c Coordinates) IsUnresolved() bool { return c == Unresolved }

func (c Coordinates) String() string { return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng) }

// MatchMethod records which resolver stage produced a match.
type MatchMethod string

// Match methods in resolver order.
const (
	MatchAirport MatchMethod = "airport"
	MatchExact   MatchMethod = "exact"
	MatchAlias   MatchMethod = "alias"
	MatchFuzzy   MatchMethod = "fuzzy"
	MatchNone    MatchMethod = "none"
)

// LocationMatch is the outcome of resolving free text to a known place.
type LocationMatch struct {
	Input       string      `json:"input"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Similarity  float64     `json:"similarity"`
	Method      MatchMethod `json:"method"`
}

// Airport is a reference airport keyed by IATA code.
type Airport struct {
	Code        string      `json:"code" yaml:"code"`
	City        string      `json:"city" yaml:"city"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
}

// TaxiRate describes local transport pricing for a city.
type TaxiRate struct {
	BaseFare      float64 `json:"base_fare" yaml:"base_fare"`
	PerKm         float64 `json:"per_km" yaml:"per_km"`
	TypicalTripKm float64 `json:"typical_trip_km" yaml:"typical_trip_km"`
}

// City is a reference city. Name is the canonical "City, CC" form.
type City struct {
	Name        string      `json:"name" yaml:"name"`
	City        string      `json:"city" yaml:"city"`
	CountryCode string      `json:"country_code" yaml:"country_code"`
	CountryName string      `json:"country_name" yaml:"country_name"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
}
