package location

import "errors"

// Sentinel errors for location resolution.
var (
	// ErrNotFound marks input that matched no known airport or city.
	ErrNotFound = errors.New("location not found")
)
