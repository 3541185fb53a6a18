package observable

import (
	"context"
	"sync"
)

// Collect subscribes to src and blocks until it terminates or ctx is done.
//
// It returns every value received before termination. When ctx is done first
// the subscription is disposed and ctx.Err() is returned with the values seen
// so far.
func Collect[T any](ctx context.Context, src Observable[T]) ([]T, error) {
	var (
		mu     sync.Mutex
		values []T
	)
	done := make(chan error, 1)

	sub := src.Subscribe(Callbacks[T]{
		Next: func(value T) {
			mu.Lock()
			values = append(values, value)
			mu.Unlock()
		},
		Error: func(err error) {
			select {
			case done <- err:
			default:
			}
		},
		Completed: func() {
			select {
			case done <- nil:
			default:
			}
		},
	})

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	sub.Dispose()

	mu.Lock()
	defer mu.Unlock()
	return values, err
}

// Wait subscribes to src and blocks until it terminates or ctx is done,
// discarding values.
func Wait[T any](ctx context.Context, src Observable[T]) error {
	done := make(chan error, 1)
	sub := src.Subscribe(Callbacks[T]{
		Error: func(err error) {
			select {
			case done <- err:
			default:
			}
		},
		Completed: func() {
			select {
			case done <- nil:
			default:
			}
		},
	})
	defer sub.Dispose()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
