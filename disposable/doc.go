// Package disposable provides cancellation handles for subscriptions and
// scheduled work.
//
// Every handle is idempotent: disposing twice has the same effect as disposing
// once. Holders that accept targets after construction ([Single], [Serial],
// [Composite]) dispose late arrivals immediately once they have themselves
// been disposed, so disposing a root handle always reaches work that is
// registered afterwards.
//
//	root := disposable.NewComposite()
//	current := disposable.NewSerial()
//	root.Add(current)
//
//	current.Set(first)  // active subscription
//	current.Set(second) // first is disposed, second becomes active
//
//	root.Dispose()      // second is disposed
//	current.Set(third)  // third is disposed immediately
package disposable
