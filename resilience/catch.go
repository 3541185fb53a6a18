package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/either"
	"github.com/jonwraymond/rxops/observable"
	"github.com/jonwraymond/rxops/observe"
	"github.com/jonwraymond/rxops/scheduler"
)

// FallbackConfig configures Catch and OnErrorResumeNext.
//
// E selects which failures are recoverable: an error is caught when
// errors.As can extract an E from it and Filter, if set, accepts it.
type FallbackConfig[T any, E error] struct {
	// Handler picks the sources to continue from after a caught failure.
	// Returning nil continues the current sequence.
	// Default: continue the current sequence.
	Handler func(err E) Sources[T]

	// Backoff returns the delay before resubscribing. A negative delay
	// makes the failure terminal.
	// Default: resubscribe immediately.
	Backoff func(err E) time.Duration

	// Filter narrows which E values are caught. Rejected failures are
	// terminal and skip the right channel.
	// Default: every E is caught.
	Filter func(err E) bool

	// Scheduler runs subscriptions and delayed resubscriptions.
	// Default: a new Trampoline per subscription.
	Scheduler scheduler.Scheduler

	// Telemetry records the subscription's span, recoveries and outcome.
	// Default: nil, no telemetry.
	Telemetry *observe.Middleware

	// Meta names the stream for telemetry.
	Meta observe.StreamMeta
}

// Catch subscribes to sources one at a time.
//
// Values of the active source are delivered on the left channel. When the
// active source fails with a caught error, the error is delivered on the
// right channel and the next source is subscribed after the backoff delay.
// The first source to complete completes the result. If the sequence runs
// out while recovering, the result fails with the last caught error.
// Failures that are not caught, and failures of the policy closures
// themselves, are terminal.
func Catch[T any, E error](sources Sources[T], config FallbackConfig[T, E]) either.Observable[T, E] {
	return fallback(sources, config, "catch", false)
}

// OnErrorResumeNext behaves like Catch except that a completed source also
// advances to the next one, and running out of sources always completes.
func OnErrorResumeNext[T any, E error](sources Sources[T], config FallbackConfig[T, E]) either.Observable[T, E] {
	return fallback(sources, config, "on_error_resume_next", true)
}

func fallback[T any, E error](sources Sources[T], config FallbackConfig[T, E], operator string, resume bool) either.Observable[T, E] {
	if sources == nil {
		return observable.Throw[either.Either[T, E]](invalidArgument("%s: nil sources", operator))
	}
	if config.Meta.Operator == "" {
		config.Meta.Operator = operator
	}

	return either.Create(func(out either.Observer[T, E]) disposable.Disposable {
		sched := config.Scheduler
		if sched == nil {
			sched = scheduler.NewTrampoline()
		}

		m := &fallbackMachine[T, E]{
			config:  config,
			resume:  resume,
			out:     out,
			life:    config.Telemetry.Start(config.Meta),
			current: disposable.NewSerial(),
			cursor:  newCursor(sources),
		}

		loop := scheduler.ScheduleRecursive(sched, 0, m.step)
		return disposable.NewComposite(
			disposable.NewFunc(func() { m.life.End(observe.OutcomeDisposed, nil) }),
			loop,
			m.current,
			disposable.NewFunc(m.closeCursor),
		)
	})
}

// fallbackMachine is the per-subscription state of Catch and
// OnErrorResumeNext. Exactly one source subscription is live at a time.
type fallbackMachine[T any, E error] struct {
	config FallbackConfig[T, E]
	resume bool
	out    either.Observer[T, E]
	life   *observe.Lifecycle

	current *disposable.Serial

	mu         sync.Mutex
	cursor     *cursor[T]
	closed     bool
	pending    observable.Observable[T]
	recoveries int
}

func (m *fallbackMachine[T, E]) step(self scheduler.Reschedule) {
	src := m.takePending()
	if src == nil {
		next, ok, err := m.activeCursor().advance()
		if err != nil {
			m.fail(err)
			return
		}
		if !ok {
			m.complete()
			return
		}
		src = next
	}

	single := disposable.NewSingle()
	m.current.Set(single)
	single.Set(src.Subscribe(&fallbackObserver[T, E]{m: m, self: self}))
}

func (m *fallbackMachine[T, E]) recover(err error, self scheduler.Reschedule) {
	var caught E
	if !errors.As(err, &caught) {
		m.fail(err)
		return
	}
	if m.config.Filter != nil {
		accept, perr := guard(PolicyFilter, func() bool { return m.config.Filter(caught) })
		if perr != nil {
			m.fail(perr)
			return
		}
		if !accept {
			m.fail(err)
			return
		}
	}

	m.out.OnNextRight(caught)

	if m.config.Handler != nil {
		next, perr := guard(PolicyHandler, func() Sources[T] { return m.config.Handler(caught) })
		if perr != nil {
			m.fail(perr)
			return
		}
		if next != nil {
			m.replaceCursor(next)
		}
	}

	src, ok, aerr := m.activeCursor().advance()
	if aerr != nil {
		m.fail(aerr)
		return
	}
	if !ok {
		if m.resume {
			m.complete()
		} else {
			m.fail(err)
		}
		return
	}

	var delay time.Duration
	if m.config.Backoff != nil {
		d, perr := guard(PolicyBackoff, func() time.Duration { return m.config.Backoff(caught) })
		if perr != nil {
			m.fail(perr)
			return
		}
		delay = d
	}
	if delay < 0 {
		m.fail(err)
		return
	}

	m.mu.Lock()
	m.recoveries++
	attempt := m.recoveries
	m.pending = src
	m.mu.Unlock()

	m.life.Recovered(attempt, delay, err)
	self(delay)
}

func (m *fallbackMachine[T, E]) takePending() observable.Observable[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.pending
	m.pending = nil
	return src
}

func (m *fallbackMachine[T, E]) activeCursor() *cursor[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

func (m *fallbackMachine[T, E]) replaceCursor(s Sources[T]) {
	next := newCursor(s)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		next.close()
		return
	}
	prev := m.cursor
	m.cursor = next
	m.mu.Unlock()

	prev.close()
}

func (m *fallbackMachine[T, E]) closeCursor() {
	m.mu.Lock()
	m.closed = true
	c := m.cursor
	m.pending = nil
	m.mu.Unlock()

	c.close()
}

func (m *fallbackMachine[T, E]) fail(err error) {
	m.life.End(observe.OutcomeError, err)
	m.out.OnError(err)
}

func (m *fallbackMachine[T, E]) complete() {
	m.life.End(observe.OutcomeCompleted, nil)
	m.out.OnCompleted()
}

// fallbackObserver receives the notifications of one source subscription.
// Once it has seen a terminal notification it ignores the rest.
type fallbackObserver[T any, E error] struct {
	m    *fallbackMachine[T, E]
	self scheduler.Reschedule
	done atomic.Bool
}

func (o *fallbackObserver[T, E]) OnNext(value T) {
	if o.done.Load() {
		return
	}
	o.m.out.OnNextLeft(value)
}

func (o *fallbackObserver[T, E]) OnError(err error) {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	o.m.recover(err, o.self)
}

func (o *fallbackObserver[T, E]) OnCompleted() {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	if o.m.resume {
		o.self(0)
		return
	}
	o.m.complete()
}
