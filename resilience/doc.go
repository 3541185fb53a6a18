// Package resilience provides error-recovery and serving operators for
// observable streams.
//
// # Operators
//
//   - Catch: subscribes to a sequence of alternative sources one at a time.
//     A recoverable failure is reported on the right channel of the result
//     and the next source is subscribed, optionally after a backoff delay.
//
//   - OnErrorResumeNext: like Catch, but completion also moves on to the next
//     source and running out of sources completes the result.
//
//   - Retry: resubscribes to one source a fixed number of times, passing the
//     1-based attempt number to the backoff function.
//
//   - RetryConsecutive: like Retry, but a delivered value restores the full
//     budget, so only failures in a row are bounded.
//
//   - Serve: keeps up to MaxConcurrent subscriptions alive, each drawn from a
//     factory and replaced when it ends. Values from different slots are not
//     serialized.
//
//   - Timeout: fails a source that stays silent for too long.
//
// # Recoverable failures
//
// The error type parameter E of Catch and OnErrorResumeNext selects which
// failures are caught, using errors.As. Anything else is terminal. A backoff
// function returning a negative delay (see Fatal) marks a caught failure
// terminal as well; the original error is delivered.
//
// Caller-supplied closures (handlers, backoff functions, source sequences,
// factories and error classifiers) that panic or yield an error stop the
// stream with a *PolicyError, never with the error being recovered from.
//
// # Usage
//
//	results := resilience.Retry(fetch, resilience.RetryConfig{
//	    Count: 5,
//	    Backoff: resilience.ExponentialBackoff(resilience.BackoffConfig{
//	        InitialDelay: 100 * time.Millisecond,
//	        MaxDelay:     5 * time.Second,
//	        Jitter:       true,
//	    }),
//	})
//
//	results.Subscribe(either.Pair[Page, error](either.Callbacks[Page, error]{
//	    Left:  handlePage,
//	    Right: func(err error) { log.Printf("retrying after %v", err) },
//	}))
//
//	budget := resilience.NewErrorBudget(resilience.ErrorBudgetConfig{
//	    MaxFailures: 10,
//	    Window:      time.Minute,
//	})
//	server := resilience.Serve(newWorker, resilience.ServeConfig{
//	    MaxConcurrent: 16,
//	    OnError:       budget.Absorb,
//	})
//
// The recovering operators and Serve accept an optional *observe.Middleware
// that traces, counts and logs their subscriptions.
package resilience
