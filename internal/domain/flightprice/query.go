package flightprice

import (
	"time"

	"github.com/okian/stipend/internal/domain/model"
)

// DateLayout is the day format used in cache keys and outbound requests.
const DateLayout = "2006-01-02"

// Query is a round trip to price.
type Query struct {
	Origin      string
	Destination string
	Outbound    time.Time
	Inbound     time.Time
	// Resolved endpoints; either may be model.Unresolved.
	OriginCoords      model.Coordinates
	DestinationCoords model.Coordinates
	// IncludeBudgetCarriers disables the alliance filter.
	IncludeBudgetCarriers bool
}
