package observable

import (
	"github.com/jonwraymond/rxops/disposable"
)

// Just emits the given values in order and completes.
func Just[T any](values ...T) Observable[T] {
	return FromSlice(values)
}

// FromSlice emits the elements of items in order, synchronously on the
// subscribing goroutine, and completes.
func FromSlice[T any](items []T) Observable[T] {
	return Create(func(observer Observer[T]) disposable.Disposable {
		for _, item := range items {
			observer.OnNext(item)
		}
		observer.OnCompleted()
		return disposable.Empty
	})
}

// Empty completes immediately.
func Empty[T any]() Observable[T] {
	return Create(func(observer Observer[T]) disposable.Disposable {
		observer.OnCompleted()
		return disposable.Empty
	})
}

// Throw fails immediately with err.
func Throw[T any](err error) Observable[T] {
	return Create(func(observer Observer[T]) disposable.Disposable {
		observer.OnError(err)
		return disposable.Empty
	})
}

// Never emits nothing and never terminates.
func Never[T any]() Observable[T] {
	return Func[T](func(Observer[T]) disposable.Disposable {
		return disposable.Empty
	})
}

// Defer calls factory on every subscription and subscribes to its result.
// A factory error is delivered as OnError.
func Defer[T any](factory func() (Observable[T], error)) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		src, err := factory()
		if err != nil {
			return Throw[T](err).Subscribe(observer)
		}
		return src.Subscribe(observer)
	})
}

// Do calls the matching tap callback before forwarding each notification.
func Do[T any](src Observable[T], tap Callbacks[T]) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		return src.Subscribe(Callbacks[T]{
			Next: func(value T) {
				tap.OnNext(value)
				observer.OnNext(value)
			},
			Error: func(err error) {
				tap.OnError(err)
				observer.OnError(err)
			},
			Completed: func() {
				tap.OnCompleted()
				observer.OnCompleted()
			},
		})
	})
}
