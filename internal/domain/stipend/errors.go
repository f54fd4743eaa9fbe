package stipend

import "errors"

// Sentinel errors for stipend calculation.
var (
	// ErrInvalidTrip marks malformed input. It is the only error Calculate returns.
	ErrInvalidTrip = errors.New("invalid trip request")
)
