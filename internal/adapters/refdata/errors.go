package refdata

import "errors"

// Sentinel errors for reference data access.
var (
	ErrSeed   = errors.New("invalid reference seed")
	ErrQuery  = errors.New("reference query failed")
	ErrClosed = errors.New("reference store closed")
)
