package scheduler

import (
	"time"

	"github.com/jonwraymond/rxops/disposable"
)

// Reschedule asks a recursive action to run again after delay.
type Reschedule func(delay time.Duration)

// ScheduleRecursive runs action after delay and hands it a Reschedule
// function it can call to run again, any number of times.
//
// The returned handle cancels the pending run and every future one. Each
// pending run is tracked only until it starts, so a long-lived loop does not
// accumulate handles.
func ScheduleRecursive(s Scheduler, delay time.Duration, action func(self Reschedule)) disposable.Disposable {
	group := disposable.NewComposite()

	var self Reschedule
	self = func(d time.Duration) {
		if group.IsDisposed() {
			return
		}

		pending := disposable.NewSingle()
		group.Add(pending)

		run := func() {
			group.Remove(pending)
			if group.IsDisposed() {
				return
			}
			action(self)
		}

		if d <= 0 {
			pending.Set(s.Schedule(run))
		} else {
			pending.Set(s.ScheduleAfter(d, run))
		}
	}

	self(delay)
	return group
}
