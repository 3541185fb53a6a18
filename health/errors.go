package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not return before its deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckPanicked indicates a health check panicked.
	ErrCheckPanicked = errors.New("health: check panicked")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrProbeIncomplete indicates a probe stream ended before delivering
	// enough values.
	ErrProbeIncomplete = errors.New("health: probe incomplete")
)
