package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrInvalidArgument is delivered on subscribe when an operator was built
	// with arguments it cannot run with.
	ErrInvalidArgument = errors.New("resilience: invalid argument")

	// ErrTimeout is delivered by Timeout when a source stays silent too long.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrNilSource is reported when a sources iterator or factory yields a nil observable.
	ErrNilSource = errors.New("resilience: nil source")

	// ErrServerFaulted is reported by Server.Check after a failure stopped it.
	ErrServerFaulted = errors.New("resilience: server faulted")
)

// Names of the caller-supplied closures reported in PolicyError.
const (
	PolicyHandler = "handler"
	PolicyBackoff = "backoff"
	PolicyFilter  = "filter"
	PolicySources = "sources"
	PolicyFactory = "factory"
	PolicyOnError = "onError"
)

// PolicyError reports that a caller-supplied closure failed while an operator
// was deciding how to recover. It is always terminal and never carries the
// error being recovered from.
type PolicyError struct {
	Policy string
	Err    error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("resilience: %s policy failed: %v", e.Policy, e.Err)
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
