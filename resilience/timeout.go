package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
	"github.com/jonwraymond/rxops/scheduler"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the longest the source may go without a notification.
	// Default: 30 seconds
	Timeout time.Duration

	// Scheduler runs the timer.
	// Default: a new Trampoline per subscription.
	Scheduler scheduler.Scheduler
}

// Timeout fails with ErrTimeout when source goes longer than config.Timeout
// without a notification. The timer starts on subscription and restarts on
// every value. Wrapped in Retry, a stalled source is resubscribed.
func Timeout[T any](source observable.Observable[T], config TimeoutConfig) observable.Observable[T] {
	if source == nil {
		return observable.Throw[T](invalidArgument("timeout: nil source"))
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return observable.Create(func(o observable.Observer[T]) disposable.Disposable {
		sched := config.Scheduler
		if sched == nil {
			sched = scheduler.NewTrampoline()
		}

		t := &timeoutState[T]{
			out:   o,
			sched: sched,
			after: config.Timeout,
			timer: disposable.NewSerial(),
		}
		t.arm()

		inner := source.Subscribe(observable.Callbacks[T]{
			// next retires the pending timer before the value is forwarded
			// and arm runs only after OnNext returns, so a timer firing
			// during delivery always sees a stale generation.
			Next: func(value T) {
				if !t.next() {
					return
				}
				o.OnNext(value)
				t.arm()
			},
			Error: func(err error) {
				if t.stop() {
					o.OnError(err)
				}
			},
			Completed: func() {
				if t.stop() {
					o.OnCompleted()
				}
			},
		})

		return disposable.NewComposite(t.timer, inner)
	})
}

type timeoutState[T any] struct {
	out   observable.Observer[T]
	sched scheduler.Scheduler
	after time.Duration
	timer *disposable.Serial

	mu      sync.Mutex
	gen     uint64
	expired bool
}

// arm replaces the pending timer with one for the current generation.
func (t *timeoutState[T]) arm() {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()

	t.timer.Set(t.sched.ScheduleAfter(t.after, func() {
		t.mu.Lock()
		if t.expired || t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.expired = true
		t.mu.Unlock()

		t.out.OnError(fmt.Errorf("%w: no notification within %s", ErrTimeout, t.after))
	}))
}

// next invalidates the pending timer. It reports false once the timer fired.
func (t *timeoutState[T]) next() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired {
		return false
	}
	t.gen++
	return true
}

// stop ends the race with the timer. It reports whether the source won.
func (t *timeoutState[T]) stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired {
		return false
	}
	t.expired = true
	return true
}
