package main

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
)

// tick is one value of a synthetic job.
type tick struct {
	Job int
	Seq int
}

// errJobFailed is the failure a synthetic job reports.
type errJobFailed struct {
	job int
	seq int
}

func (e *errJobFailed) Error() string {
	return fmt.Sprintf("job %d failed at tick %d", e.job, e.seq)
}

// newJob returns a stream that emits ticks values interval apart and then
// completes. Before each value it fails with probability failureRate.
func newJob(id, ticks int, interval time.Duration, failureRate float64) observable.Observable[tick] {
	return observable.Create(func(o observable.Observer[tick]) disposable.Disposable {
		var (
			mu      sync.Mutex
			timer   *time.Timer
			stopped bool
			seq     int
		)

		var step func()
		step = func() {
			mu.Lock()
			if stopped {
				mu.Unlock()
				return
			}
			seq++
			n := seq
			mu.Unlock()

			if rand.Float64() < failureRate {
				o.OnError(&errJobFailed{job: id, seq: n})
				return
			}
			o.OnNext(tick{Job: id, Seq: n})
			if n >= ticks {
				o.OnCompleted()
				return
			}

			mu.Lock()
			if !stopped {
				timer = time.AfterFunc(interval, step)
			}
			mu.Unlock()
		}

		mu.Lock()
		timer = time.AfterFunc(interval, step)
		mu.Unlock()

		return disposable.NewFunc(func() {
			mu.Lock()
			defer mu.Unlock()
			stopped = true
			timer.Stop()
		})
	})
}
