package resilience

import (
	"iter"
	"sync"

	"github.com/jonwraymond/rxops/observable"
)

// Sources is a lazily produced sequence of alternative sources.
//
// A yielded non-nil error means the sequence itself failed; the fallback
// operators report it as a PolicyError and stop. Sources may be iterated once
// per subscription, so it must be re-iterable.
type Sources[T any] iter.Seq2[observable.Observable[T], error]

// Of yields the given sources in order.
func Of[T any](sources ...observable.Observable[T]) Sources[T] {
	return func(yield func(observable.Observable[T], error) bool) {
		for _, src := range sources {
			if !yield(src, nil) {
				return
			}
		}
	}
}

// Repeat yields source count times. A negative count repeats forever.
func Repeat[T any](source observable.Observable[T], count int) Sources[T] {
	return func(yield func(observable.Observable[T], error) bool) {
		for i := 0; count < 0 || i < count; i++ {
			if !yield(source, nil) {
				return
			}
		}
	}
}

// FromSeq adapts a plain iterator of sources.
func FromSeq[T any](seq iter.Seq[observable.Observable[T]]) Sources[T] {
	return func(yield func(observable.Observable[T], error) bool) {
		for src := range seq {
			if !yield(src, nil) {
				return
			}
		}
	}
}

// cursor pulls one source at a time from a Sources sequence.
type cursor[T any] struct {
	mu     sync.Mutex
	next   func() (observable.Observable[T], error, bool)
	stop   func()
	closed bool
}

func newCursor[T any](s Sources[T]) *cursor[T] {
	next, stop := iter.Pull2(iter.Seq2[observable.Observable[T], error](s))
	return &cursor[T]{next: next, stop: stop}
}

// advance returns the next source, or ok == false once the sequence is
// exhausted or the cursor closed. Failures of the sequence itself are
// returned as PolicyError.
func (c *cursor[T]) advance() (src observable.Observable[T], ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, nil
	}

	type pulled struct {
		src observable.Observable[T]
		err error
		ok  bool
	}
	p, perr := guard(PolicySources, func() pulled {
		src, err, ok := c.next()
		return pulled{src, err, ok}
	})
	switch {
	case perr != nil:
		return nil, false, perr
	case !p.ok:
		return nil, false, nil
	case p.err != nil:
		return nil, false, &PolicyError{Policy: PolicySources, Err: p.err}
	case p.src == nil:
		return nil, false, &PolicyError{Policy: PolicySources, Err: ErrNilSource}
	}
	return p.src, true, nil
}

func (c *cursor[T]) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.stop()
}
