package cache

import "errors"

// Sentinel kinds for cache persistence errors.
var (
	ErrLoad  = errors.New("cache load failed")
	ErrFlush = errors.New("cache flush failed")
)
