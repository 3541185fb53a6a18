package resilience

import (
	"sync"
	"time"
)

// ErrorBudgetConfig configures an ErrorBudget.
type ErrorBudgetConfig struct {
	// MaxFailures is the number of failures inside Window that exhausts the
	// budget. The failure that reaches it is the first one reported fatal.
	// Default: 5
	MaxFailures int

	// Window is how far back failures are counted.
	// Default: 1 minute
	Window time.Duration

	// IsFailure determines if an error should count against the budget.
	// Errors it rejects are always fatal.
	// Default: all non-nil errors count.
	IsFailure func(err error) bool

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// ErrorBudget absorbs failures until too many occur within a sliding
// window. Its Absorb method fits ServeConfig.OnError.
type ErrorBudget struct {
	config ErrorBudgetConfig

	mu       sync.Mutex
	failures []time.Time
}

// NewErrorBudget creates a new error budget.
func NewErrorBudget(config ErrorBudgetConfig) *ErrorBudget {
	// Apply defaults
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &ErrorBudget{config: config}
}

// Absorb records err and reports whether the budget still covers it.
func (b *ErrorBudget) Absorb(err error) bool {
	if !b.config.IsFailure(err) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.config.Now()
	b.prune(now)
	b.failures = append(b.failures, now)
	return len(b.failures) < b.config.MaxFailures
}

// Remaining returns how many more failures the current window absorbs.
func (b *ErrorBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune(b.config.Now())
	if n := b.config.MaxFailures - 1 - len(b.failures); n > 0 {
		return n
	}
	return 0
}

// Reset forgets all recorded failures.
func (b *ErrorBudget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = nil
}

// Config returns the budget configuration.
func (b *ErrorBudget) Config() ErrorBudgetConfig {
	return b.config
}

func (b *ErrorBudget) prune(now time.Time) {
	cutoff := now.Add(-b.config.Window)
	i := 0
	for i < len(b.failures) && !b.failures[i].After(cutoff) {
		i++
	}
	b.failures = b.failures[i:]
}
