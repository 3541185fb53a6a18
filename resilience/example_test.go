package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/either"
	"github.com/jonwraymond/rxops/observable"
	"github.com/jonwraymond/rxops/resilience"
	"github.com/jonwraymond/rxops/scheduler"
)

type unavailableError struct {
	replica string
}

func (e *unavailableError) Error() string {
	return e.replica + " unavailable"
}

func ExampleCatch() {
	replicas := resilience.Of(
		observable.Throw[string](&unavailableError{"primary"}),
		observable.Throw[string](&unavailableError{"secondary"}),
		observable.Just("row from tertiary"),
	)

	results := resilience.Catch(replicas, resilience.FallbackConfig[string, *unavailableError]{})

	either.Subscribe(results, either.Callbacks[string, *unavailableError]{
		Left:      func(row string) { fmt.Println("value:", row) },
		Right:     func(err *unavailableError) { fmt.Println("recovered:", err) },
		Completed: func() { fmt.Println("done") },
	})
	// Output:
	// recovered: primary unavailable
	// recovered: secondary unavailable
	// value: row from tertiary
	// done
}

func ExampleOnErrorResumeNext() {
	pages := resilience.Of(
		observable.Just("page 1"),
		observable.Throw[string](&unavailableError{"page 2"}),
		observable.Just("page 3"),
	)

	rows, err := observable.Collect(context.Background(),
		either.Lefts(resilience.OnErrorResumeNext(pages, resilience.FallbackConfig[string, *unavailableError]{})))

	fmt.Println(rows, err)
	// Output:
	// [page 1 page 3] <nil>
}

func ExampleRetry() {
	calls := 0
	flaky := observable.Defer(func() (observable.Observable[int], error) {
		calls++
		if calls < 3 {
			return observable.Throw[int](fmt.Errorf("call %d failed", calls)), nil
		}
		return observable.Just(42), nil
	})

	results := resilience.Retry(flaky, resilience.RetryConfig{
		Count: 5,
		Backoff: func(attempt int) time.Duration {
			fmt.Println("backoff for attempt", attempt)
			return 0
		},
	})

	either.Subscribe(results, either.Callbacks[int, error]{
		Left:  func(v int) { fmt.Println("value:", v) },
		Right: func(err error) { fmt.Println("retrying after:", err) },
	})
	// Output:
	// retrying after: call 1 failed
	// backoff for attempt 1
	// retrying after: call 2 failed
	// backoff for attempt 2
	// value: 42
}

func ExampleRetryConsecutive() {
	calls := 0
	stream := observable.Create(func(o observable.Observer[int]) disposable.Disposable {
		calls++
		if calls%2 == 0 && calls <= 6 {
			o.OnNext(calls)
		}
		o.OnError(errors.New("connection reset"))
		return disposable.Empty
	})

	// Three failures in a row end the stream; a value in between restarts
	// the count.
	results := resilience.RetryConsecutive(stream, resilience.RetryConfig{Count: 3})

	values, err := observable.Collect(context.Background(), either.Lefts(results))
	fmt.Println(values, err, calls)
	// Output:
	// [2 4 6] connection reset 8
}

func ExampleServe() {
	v := scheduler.NewVirtual(time.Unix(0, 0))

	budget := resilience.NewErrorBudget(resilience.ErrorBudgetConfig{MaxFailures: 3})
	jobs := 0
	server := resilience.Serve(func() (observable.Observable[string], error) {
		jobs++
		if jobs%2 == 0 {
			return observable.Throw[string](fmt.Errorf("job %d failed", jobs)), nil
		}
		return observable.Just(fmt.Sprintf("job %d done", jobs)), nil
	}, resilience.ServeConfig{
		MaxConcurrent: 1,
		OnError:       budget.Absorb,
		Scheduler:     v,
	})

	server.Subscribe(observable.Callbacks[string]{
		Next:  func(s string) { fmt.Println(s) },
		Error: func(err error) { fmt.Println("stopped:", err) },
	})
	v.Run()

	fmt.Println(server.Stats().Absorbed, "absorbed")
	// Output:
	// job 1 done
	// job 3 done
	// job 5 done
	// stopped: job 6 failed
	// 2 absorbed
}

func ExampleNewBackoff() {
	backoff := resilience.NewBackoff(resilience.BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		MaxAttempts:  5,
	})

	for attempt := 1; attempt <= 6; attempt++ {
		fmt.Println(attempt, backoff(attempt))
	}
	// Output:
	// 1 100ms
	// 2 200ms
	// 3 400ms
	// 4 800ms
	// 5 1s
	// 6 -1ns
}

func ExampleTimeout() {
	v := scheduler.NewVirtual(time.Unix(0, 0))

	stalled := resilience.Timeout(observable.Never[int](), resilience.TimeoutConfig{
		Timeout:   5 * time.Second,
		Scheduler: v,
	})
	stalled.Subscribe(observable.Callbacks[int]{
		Error: func(err error) { fmt.Println(err) },
	})

	v.AdvanceBy(5 * time.Second)
	// Output:
	// resilience: operation timed out: no notification within 5s
}
