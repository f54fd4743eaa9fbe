package model

import "math"

// PriceResult is a resolved flight price in USD and a description of where it came from.
type PriceResult struct {
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// Valid reports whether r satisfies the output contract: a finite non-negative price and a source.
func (r PriceResult) Valid() bool {
	return r.Source != "" && r.Price >= 0 && !math.IsNaN(r.Price) && !math.IsInf(r.Price, 0)
}

// NoFlight is the price of a trip that needs no flight.
var NoFlight = PriceResult{Price: 0, Source: "No flight needed"}
