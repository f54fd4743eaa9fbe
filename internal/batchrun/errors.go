package batchrun

import "errors"

var (
	// ErrNoOrigin is returned when no origin was given.
	ErrNoOrigin = errors.New("origin is required")
	// ErrUnknownConference is returned for a conference ID not in the reference data.
	ErrUnknownConference = errors.New("unknown conference")
)
