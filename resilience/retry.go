package resilience

import (
	"sync/atomic"
	"time"

	"github.com/jonwraymond/rxops/either"
	"github.com/jonwraymond/rxops/observable"
	"github.com/jonwraymond/rxops/observe"
	"github.com/jonwraymond/rxops/scheduler"
)

// RetryConfig configures Retry and RetryConsecutive.
type RetryConfig struct {
	// Count is the maximum number of subscriptions to the source: the
	// first attempt plus retries. Zero completes without subscribing.
	Count int

	// Backoff returns the delay before the retry following failure number
	// attempt, starting at 1.
	// Default: retry immediately.
	Backoff Backoff

	// RetryIf decides whether an error is retried. Rejected errors are
	// terminal and are not delivered on the right channel.
	// Default: all errors are retried.
	RetryIf func(err error) bool

	// Scheduler runs subscriptions and delayed retries.
	// Default: a new Trampoline per subscription.
	Scheduler scheduler.Scheduler

	// Telemetry records spans, retries and outcomes.
	Telemetry *observe.Middleware

	// Meta names the stream for telemetry.
	Meta observe.StreamMeta
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if c.Backoff == nil {
		return 0
	}
	return c.Backoff(attempt)
}

// Retry resubscribes to source after each failure, up to config.Count
// subscriptions in total. Values arrive on the left channel and each
// retried failure on the right channel. When the budget is spent the
// result fails with the last error.
func Retry[T any](source observable.Observable[T], config RetryConfig) either.Observable[T, error] {
	if err := validateRetry(source, config); err != nil {
		return observable.Throw[either.Either[T, error]](err)
	}

	return observable.Defer(func() (observable.Observable[either.Either[T, error]], error) {
		attempt := 0
		return fallback(Repeat(source, config.Count), FallbackConfig[T, error]{
			Backoff: func(error) time.Duration {
				attempt++
				return config.delay(attempt)
			},
			Filter:    config.RetryIf,
			Scheduler: config.Scheduler,
			Telemetry: config.Telemetry,
			Meta:      retryMeta(config.Meta, "retry"),
		}, "retry", false), nil
	})
}

// RetryConsecutive is Retry where config.Count bounds only failures that
// follow each other without a value in between. Any value delivered by the
// source restores the full budget; the failure that follows it counts as
// attempt 1 again.
func RetryConsecutive[T any](source observable.Observable[T], config RetryConfig) either.Observable[T, error] {
	if err := validateRetry(source, config); err != nil {
		return observable.Throw[either.Either[T, error]](err)
	}

	return observable.Defer(func() (observable.Observable[either.Either[T, error]], error) {
		var succeeded atomic.Bool
		attempt := 0

		tapped := observable.Do(source, observable.Callbacks[T]{
			Next: func(T) { succeeded.Store(true) },
		})

		return fallback(Repeat(tapped, config.Count), FallbackConfig[T, error]{
			Handler: func(error) Sources[T] {
				if succeeded.Swap(false) {
					attempt = 1
					return Repeat(tapped, config.Count-1)
				}
				attempt++
				return nil
			},
			Backoff: func(error) time.Duration {
				return config.delay(attempt)
			},
			Filter:    config.RetryIf,
			Scheduler: config.Scheduler,
			Telemetry: config.Telemetry,
			Meta:      retryMeta(config.Meta, "retry_consecutive"),
		}, "retry_consecutive", false), nil
	})
}

func validateRetry[T any](source observable.Observable[T], config RetryConfig) error {
	if source == nil {
		return invalidArgument("retry: nil source")
	}
	if config.Count < 0 {
		return invalidArgument("retry: negative count %d", config.Count)
	}
	return nil
}

func retryMeta(meta observe.StreamMeta, operator string) observe.StreamMeta {
	if meta.Operator == "" {
		meta.Operator = operator
	}
	return meta
}
