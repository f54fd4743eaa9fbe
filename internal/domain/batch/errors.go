package batch

import "errors"

// Sentinel errors for batch jobs.
var (
	ErrEmptyBatch  = errors.New("batch has no trips")
	ErrJobNotFound = errors.New("batch job not found")
)
