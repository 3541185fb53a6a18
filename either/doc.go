// Package either provides a two-variant value type and the paired-channel
// observer built on it.
//
// [Either] holds exactly one of a left or a right value. Reading the side it
// does not hold returns [ErrWrongVariant] rather than a zero value.
//
// A paired [Observable] multiplexes two logical channels onto one stream of
// Either values. Consumers that prefer separate callbacks subscribe with a
// paired [Observer]; operators that produce Either values directly can still
// be consumed as plain observables. The resilience operators use the left
// channel for source values and the right channel for recovered errors:
//
//	either.Subscribe(stream, either.Callbacks[int, error]{
//	    Left:  func(v int) { fmt.Println("value", v) },
//	    Right: func(err error) { fmt.Println("recovered", err) },
//	})
package either
