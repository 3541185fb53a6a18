package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/jonwraymond/rxops/disposable"
)

// Virtual is a deterministic scheduler driven by a manually advanced clock.
//
// Nothing runs until the clock is advanced with AdvanceBy, AdvanceTo or Run.
// Actions due at the same instant run in the order they were scheduled.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	queue virtualQueue
}

// NewVirtual creates a virtual scheduler whose clock starts at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Schedule queues action at the current virtual time.
func (v *Virtual) Schedule(action func()) disposable.Disposable {
	return v.ScheduleAfter(0, action)
}

// ScheduleAfter queues action at the current virtual time plus delay.
func (v *Virtual) ScheduleAfter(delay time.Duration, action func()) disposable.Disposable {
	if delay < 0 {
		delay = 0
	}

	tk := newTask(action)

	v.mu.Lock()
	v.seq++
	heap.Push(&v.queue, &virtualItem{due: v.now.Add(delay), seq: v.seq, task: tk})
	v.mu.Unlock()

	return tk
}

// AdvanceBy moves the clock forward by d, running every action that falls due.
// Negative durations are ignored.
func (v *Virtual) AdvanceBy(d time.Duration) {
	if d < 0 {
		return
	}
	v.AdvanceTo(v.Now().Add(d))
}

// AdvanceTo moves the clock to t, running every action due at or before t.
// Times in the past are ignored.
func (v *Virtual) AdvanceTo(t time.Time) {
	for {
		v.mu.Lock()
		if len(v.queue) == 0 || v.queue[0].due.After(t) {
			if t.After(v.now) {
				v.now = t
			}
			v.mu.Unlock()
			return
		}
		item := heap.Pop(&v.queue).(*virtualItem)
		if item.due.After(v.now) {
			v.now = item.due
		}
		v.mu.Unlock()

		item.task.run()
	}
}

// Run executes queued actions until none remain, advancing the clock to each
// action's due time. Actions that keep rescheduling themselves make Run loop
// forever; use AdvanceTo for those.
func (v *Virtual) Run() {
	for {
		v.mu.Lock()
		if len(v.queue) == 0 {
			v.mu.Unlock()
			return
		}
		item := heap.Pop(&v.queue).(*virtualItem)
		if item.due.After(v.now) {
			v.now = item.due
		}
		v.mu.Unlock()

		item.task.run()
	}
}

// Pending returns the number of queued actions, cancelled ones included.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue)
}

type virtualItem struct {
	due  time.Time
	seq  uint64
	task *task
}

type virtualQueue []*virtualItem

func (q virtualQueue) Len() int { return len(q) }

func (q virtualQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q virtualQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *virtualQueue) Push(x any) { *q = append(*q, x.(*virtualItem)) }

func (q *virtualQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
