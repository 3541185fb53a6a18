package observable

import (
	"sync/atomic"

	"github.com/jonwraymond/rxops/disposable"
)

// Observer receives the notifications of a stream.
//
// Contract:
// - OnError and OnCompleted are terminal; at most one of them is delivered,
//   once, and nothing follows it.
// - Ordering: a plain stream delivers notifications one at a time. Operators
//   that relax this (for example resilience.Serve) say so explicitly.
type Observer[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnCompleted()
}

// Observable is a push-based producer of values.
type Observable[T any] interface {
	// Subscribe registers an observer and returns a handle that cancels the
	// subscription.
	Subscribe(observer Observer[T]) disposable.Disposable
}

// Func adapts a subscribe function to Observable without adding any
// guarantees. Most code should use Create.
type Func[T any] func(observer Observer[T]) disposable.Disposable

// Subscribe calls f.
func (f Func[T]) Subscribe(observer Observer[T]) disposable.Disposable {
	return f(observer)
}

// Create builds an Observable from a subscribe function.
//
// The observer handed to subscribe forwards at most one terminal notification
// and drops everything after it. A terminal notification disposes the
// subscription returned by subscribe, and disposing the handle returned to the
// caller stops delivery to the caller's observer.
func Create[T any](subscribe func(observer Observer[T]) disposable.Disposable) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		upstream := disposable.NewSingle()
		s := &sink[T]{observer: observer, upstream: upstream}

		upstream.Set(subscribe(s))

		return disposable.NewFunc(func() {
			s.stopped.Store(true)
			upstream.Dispose()
		})
	})
}

// sink enforces the terminal contract on behalf of Create.
type sink[T any] struct {
	observer Observer[T]
	upstream disposable.Disposable
	stopped  atomic.Bool
}

func (s *sink[T]) OnNext(value T) {
	if s.stopped.Load() {
		return
	}
	s.observer.OnNext(value)
}

func (s *sink[T]) OnError(err error) {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.observer.OnError(err)
	s.upstream.Dispose()
}

func (s *sink[T]) OnCompleted() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.observer.OnCompleted()
	s.upstream.Dispose()
}

// Callbacks is an Observer built from optional functions.
type Callbacks[T any] struct {
	Next      func(value T)
	Error     func(err error)
	Completed func()
}

// OnNext calls Next if set.
func (c Callbacks[T]) OnNext(value T) {
	if c.Next != nil {
		c.Next(value)
	}
}

// OnError calls Error if set.
func (c Callbacks[T]) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

// OnCompleted calls Completed if set.
func (c Callbacks[T]) OnCompleted() {
	if c.Completed != nil {
		c.Completed()
	}
}
