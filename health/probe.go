package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/rxops/observable"
)

// ProbeConfig configures a stream probe.
type ProbeConfig struct {
	// Timeout bounds one probe subscription.
	// Default: 5 seconds
	Timeout time.Duration

	// MinValues is the number of values the probe stream must deliver.
	// Default: 1
	MinValues int

	// SlowThreshold reports the probe degraded when it takes longer.
	// Zero disables the check.
	SlowThreshold time.Duration
}

// Probe checks a component by subscribing to a short-lived stream and
// waiting for it to complete.
type Probe[T any] struct {
	name   string
	src    observable.Observable[T]
	config ProbeConfig
}

// NewProbe creates a probe named name over src. src is subscribed once per
// Check.
func NewProbe[T any](name string, src observable.Observable[T], config ProbeConfig) *Probe[T] {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MinValues <= 0 {
		config.MinValues = 1
	}
	return &Probe[T]{name: name, src: src, config: config}
}

// Name returns the probe name.
func (p *Probe[T]) Name() string {
	return p.name
}

// Check subscribes to the probe stream and reports how it ended.
func (p *Probe[T]) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	values, err := observable.Collect(ctx, p.src)
	elapsed := time.Since(start)

	details := map[string]any{"values": len(values)}

	switch {
	case ctx.Err() != nil && err == ctx.Err():
		return Unhealthy("probe timed out", ErrCheckTimeout).WithDetails(details).WithDuration(elapsed)
	case err != nil:
		return Unhealthy("probe failed", err).WithDetails(details).WithDuration(elapsed)
	case len(values) < p.config.MinValues:
		msg := fmt.Sprintf("probe delivered %d of %d values", len(values), p.config.MinValues)
		return Unhealthy(msg, ErrProbeIncomplete).WithDetails(details).WithDuration(elapsed)
	case p.config.SlowThreshold > 0 && elapsed > p.config.SlowThreshold:
		return Degraded(fmt.Sprintf("probe slow: %s", elapsed)).WithDetails(details).WithDuration(elapsed)
	default:
		return Healthy("probe completed").WithDetails(details).WithDuration(elapsed)
	}
}
