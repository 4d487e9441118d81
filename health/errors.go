package health

import "errors"

var (
	// ErrCheckTimeout marks a result whose checker did not answer
	// within the aggregator's deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned when a named check is requested
	// for a component that was never registered.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
