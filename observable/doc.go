// Package observable provides the push-based stream substrate the operators in
// this module are built on.
//
// An [Observable] delivers values to an [Observer] through OnNext and ends
// with exactly one of OnError or OnCompleted. Subscribing returns a
// [disposable.Disposable] that cancels the subscription.
//
// [Create] is the usual way to build an observable: it guarantees that at most
// one terminal notification reaches the observer, that nothing follows it, and
// that the producer's resources are released on termination or disposal.
//
//	src := observable.Create(func(o observable.Observer[int]) disposable.Disposable {
//	    o.OnNext(1)
//	    o.OnNext(2)
//	    o.OnCompleted()
//	    return disposable.Empty
//	})
//
//	values, err := observable.Collect(ctx, src)
package observable
