package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/jonwraymond/rxops/disposable"
)

// Scheduler runs actions now or after a delay.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Cancellation: disposing a returned handle before the action starts
//   prevents it from running; disposing after it started has no effect.
// - Delays: a delay <= 0 behaves like Schedule.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// Schedule runs action as soon as possible.
	Schedule(action func()) disposable.Disposable

	// ScheduleAfter runs action once delay has elapsed.
	ScheduleAfter(delay time.Duration, action func()) disposable.Disposable
}

// task is a cancellable unit of work shared by the scheduler implementations.
type task struct {
	action    func()
	cancelled atomic.Bool
}

func newTask(action func()) *task {
	return &task{action: action}
}

func (t *task) Dispose() {
	t.cancelled.Store(true)
}

func (t *task) run() {
	if t.cancelled.Load() {
		return
	}
	t.action()
}
