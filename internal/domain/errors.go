package domain

import "errors"

// Error taxonomy for the resolution pipeline. NotFound and ServiceUnavailable
// are recoverable at the reach level and drive the fallback ordering;
// NoHydrolineFound is structural and never retried; the geometry and
// validation errors indicate bad data and fail the reach outright.
var (
	// ErrNotFound means a service could not locate a point or trace, for
	// example an access point outside hydrography network coverage.
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable means a transport call exhausted its retry budget.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrNoHydrolineFound means a trace completed but returned zero flow edges.
	ErrNoHydrolineFound = errors.New("no hydroline found")

	// ErrGeometry means a geometry operation received inputs it cannot
	// operate on, such as splitting a line at a point not on the line.
	ErrGeometry = errors.New("geometry error")

	// ErrReferenceMismatch means two geometries in one operation carry
	// different coordinate reference systems.
	ErrReferenceMismatch = errors.New("spatial reference mismatch")

	// ErrValidation means malformed input data, such as an unparseable
	// difficulty grade or a bad point type.
	ErrValidation = errors.New("validation error")
)
