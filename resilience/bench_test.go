package resilience

import (
	"testing"
	"time"

	"github.com/jonwraymond/rxops/either"
	"github.com/jonwraymond/rxops/observable"
)

// BenchmarkCatch_Recover measures one recovery followed by a value.
func BenchmarkCatch_Recover(b *testing.B) {
	sources := Of(observable.Throw[int](&transientError{1}), observable.Just(1))
	op := Catch(sources, FallbackConfig[int, *transientError]{})
	obs := either.Callbacks[int, *transientError]{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		either.Subscribe(op, obs)
	}
}

// BenchmarkRetry_Exhausted measures a retry budget spent entirely on failures.
func BenchmarkRetry_Exhausted(b *testing.B) {
	op := Retry(observable.Throw[int](errFlaky), RetryConfig{Count: 10})
	obs := either.Callbacks[int, error]{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		either.Subscribe(op, obs)
	}
}

// BenchmarkRetryConsecutive measures the budget reset path.
func BenchmarkRetryConsecutive(b *testing.B) {
	obs := either.Callbacks[int, error]{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := newScript(emitThenFail(errFlaky, 1), emitThenFail(errFlaky, 2), observable.Throw[int](errFlaky))
		either.Subscribe(RetryConsecutive(s.source(), RetryConfig{Count: 2}), obs)
	}
}

// BenchmarkBackoff_Exponential measures delay computation.
func BenchmarkBackoff_Exponential(b *testing.B) {
	backoff := ExponentialBackoff(BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: time.Second, Jitter: true})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = backoff(i%20 + 1)
	}
}

// BenchmarkErrorBudget_Absorb measures the sliding window bookkeeping.
func BenchmarkErrorBudget_Absorb(b *testing.B) {
	budget := NewErrorBudget(ErrorBudgetConfig{MaxFailures: 1 << 30, Window: time.Millisecond})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		budget.Absorb(errFlaky)
	}
}
