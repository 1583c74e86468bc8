package chart

import "errors"

// Errors returned by the chart functions. Callers match them with errors.Is;
// the returned values are usually wrapped with the offending body or index.
var (
	// ErrMalformedLongitude is returned for NaN or infinite angles.
	ErrMalformedLongitude = errors.New("malformed longitude")

	// ErrInvalidHouseCount is returned when a cusp list does not hold exactly 12 angles.
	ErrInvalidHouseCount = errors.New("house cusps must contain exactly 12 angles")

	// ErrInvalidOrb is returned for a negative or non-finite orb tolerance.
	ErrInvalidOrb = errors.New("invalid orb tolerance")

	// ErrDuplicateBody is returned when the same body appears twice in one input set.
	ErrDuplicateBody = errors.New("duplicate body")
)
