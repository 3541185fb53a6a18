package scheduler

import (
	"sync"
	"time"

	"github.com/jonwraymond/rxops/disposable"
)

// Trampoline is a current-thread scheduler.
//
// The first Schedule call on an idle trampoline drains the queue on the
// calling goroutine; nested calls made while draining are queued and run in
// FIFO order after the current action returns. Delayed actions are handed back
// to the trampoline by a timer, and the timer goroutine drains the queue if
// nobody else is.
type Trampoline struct {
	mu      sync.Mutex
	queue   []*task
	running bool
}

// NewTrampoline creates an idle trampoline.
func NewTrampoline() *Trampoline {
	return &Trampoline{}
}

// Now returns the wall clock time.
func (t *Trampoline) Now() time.Time {
	return time.Now()
}

// Schedule queues action and drains the queue if no drain is in progress.
func (t *Trampoline) Schedule(action func()) disposable.Disposable {
	tk := newTask(action)
	t.enqueue(tk)
	return tk
}

// ScheduleAfter queues action once delay has elapsed.
func (t *Trampoline) ScheduleAfter(delay time.Duration, action func()) disposable.Disposable {
	if delay <= 0 {
		return t.Schedule(action)
	}

	tk := newTask(action)
	timer := time.AfterFunc(delay, func() {
		t.enqueue(tk)
	})
	return disposable.NewFunc(func() {
		tk.Dispose()
		timer.Stop()
	})
}

// Pending returns the number of queued actions.
func (t *Trampoline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

func (t *Trampoline) enqueue(tk *task) {
	t.mu.Lock()
	t.queue = append(t.queue, tk)
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	t.drain()
}

func (t *Trampoline) drain() {
	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			t.queue = nil
			t.running = false
			t.mu.Unlock()
			return
		}
		next := t.queue[0]
		t.queue[0] = nil
		t.queue = t.queue[1:]
		t.mu.Unlock()

		next.run()
	}
}
