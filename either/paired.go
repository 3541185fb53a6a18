package either

import (
	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
)

// Observer receives two logical channels of values over one subscription.
//
// Contract:
// - Every value is delivered to exactly one of OnNextLeft or OnNextRight.
// - OnError and OnCompleted are shared by both channels and terminal.
type Observer[L, R any] interface {
	OnNextLeft(value L)
	OnNextRight(value R)
	OnError(err error)
	OnCompleted()
}

// Observable is a stream of Either values consumed as two channels.
type Observable[L, R any] interface {
	observable.Observable[Either[L, R]]
}

// Callbacks is a paired Observer built from optional functions.
type Callbacks[L, R any] struct {
	Left      func(value L)
	Right     func(value R)
	Error     func(err error)
	Completed func()
}

// OnNextLeft calls Left if set.
func (c Callbacks[L, R]) OnNextLeft(value L) {
	if c.Left != nil {
		c.Left(value)
	}
}

// OnNextRight calls Right if set.
func (c Callbacks[L, R]) OnNextRight(value R) {
	if c.Right != nil {
		c.Right(value)
	}
}

// OnError calls Error if set.
func (c Callbacks[L, R]) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

// OnCompleted calls Completed if set.
func (c Callbacks[L, R]) OnCompleted() {
	if c.Completed != nil {
		c.Completed()
	}
}

// Pair adapts a paired observer to the underlying Either stream.
func Pair[L, R any](o Observer[L, R]) observable.Observer[Either[L, R]] {
	return pairedSink[L, R]{o}
}

type pairedSink[L, R any] struct {
	target Observer[L, R]
}

func (p pairedSink[L, R]) OnNext(value Either[L, R]) {
	if value.isRight {
		p.target.OnNextRight(value.right)
		return
	}
	p.target.OnNextLeft(value.left)
}

func (p pairedSink[L, R]) OnError(err error) { p.target.OnError(err) }
func (p pairedSink[L, R]) OnCompleted()      { p.target.OnCompleted() }

// Unpair exposes an Either observer through the paired interface:
// OnNextLeft forwards MakeLeft, OnNextRight forwards MakeRight.
func Unpair[L, R any](o observable.Observer[Either[L, R]]) Observer[L, R] {
	return unpairedSink[L, R]{o}
}

type unpairedSink[L, R any] struct {
	target observable.Observer[Either[L, R]]
}

func (u unpairedSink[L, R]) OnNextLeft(value L)  { u.target.OnNext(MakeLeft[L, R](value)) }
func (u unpairedSink[L, R]) OnNextRight(value R) { u.target.OnNext(MakeRight[L](value)) }
func (u unpairedSink[L, R]) OnError(err error)   { u.target.OnError(err) }
func (u unpairedSink[L, R]) OnCompleted()        { u.target.OnCompleted() }

// Create builds a paired observable with the guarantees of observable.Create.
func Create[L, R any](subscribe func(o Observer[L, R]) disposable.Disposable) Observable[L, R] {
	return observable.Create(func(o observable.Observer[Either[L, R]]) disposable.Disposable {
		return subscribe(Unpair(o))
	})
}

// Subscribe subscribes a paired observer to src.
func Subscribe[L, R any](src Observable[L, R], o Observer[L, R]) disposable.Disposable {
	return src.Subscribe(Pair(o))
}

// Lefts keeps only the left channel of src.
func Lefts[L, R any](src Observable[L, R]) observable.Observable[L] {
	return observable.Func[L](func(o observable.Observer[L]) disposable.Disposable {
		return Subscribe(src, Callbacks[L, R]{
			Left:      o.OnNext,
			Error:     o.OnError,
			Completed: o.OnCompleted,
		})
	})
}

// Rights keeps only the right channel of src.
func Rights[L, R any](src Observable[L, R]) observable.Observable[R] {
	return observable.Func[R](func(o observable.Observer[R]) disposable.Disposable {
		return Subscribe(src, Callbacks[L, R]{
			Right:     o.OnNext,
			Error:     o.OnError,
			Completed: o.OnCompleted,
		})
	})
}
