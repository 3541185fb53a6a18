// Package scheduler provides the execution contexts stream operators run on.
//
// A [Scheduler] runs actions now or after a delay and returns a
// [disposable.Disposable] that cancels them. Three implementations are
// provided:
//
//   - [Trampoline]: current-thread execution. Actions scheduled while another
//     action is running are queued and run afterwards on the same goroutine,
//     which keeps recursive resubscription from growing the stack.
//
//   - [Pool]: one goroutine per action, bounded by a weighted semaphore.
//     Suitable for work that must make progress in parallel.
//
//   - [Virtual]: a manually advanced clock for deterministic tests of delays
//     and backoff.
//
// [ScheduleRecursive] builds self-rescheduling loops on top of any scheduler:
//
//	d := scheduler.ScheduleRecursive(s, 0, func(self scheduler.Reschedule) {
//	    if work() {
//	        self(time.Second)
//	    }
//	})
//	defer d.Dispose()
package scheduler
