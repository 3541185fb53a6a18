package resilience

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/either"
	"github.com/jonwraymond/rxops/observable"
)

var errFlaky = errors.New("flaky")

type transientError struct {
	id int
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient %d", e.id)
}

// recorder is a paired observer that keeps everything it receives.
type recorder[L, R any] struct {
	mu        sync.Mutex
	events    []string
	lefts     []L
	rights    []R
	err       error
	completed int
	terminals int
}

func (r *recorder[L, R]) OnNextLeft(v L) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lefts = append(r.lefts, v)
	r.events = append(r.events, fmt.Sprintf("L:%v", v))
}

func (r *recorder[L, R]) OnNextRight(v R) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rights = append(r.rights, v)
	r.events = append(r.events, fmt.Sprintf("R:%v", v))
}

func (r *recorder[L, R]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.terminals++
	r.events = append(r.events, "E")
}

func (r *recorder[L, R]) OnCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	r.terminals++
	r.events = append(r.events, "C")
}

func (r *recorder[L, R]) snapshot() (events []string, terminals int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), r.terminals, r.err
}

func record[L, R any](src either.Observable[L, R]) (*recorder[L, R], disposable.Disposable) {
	r := &recorder[L, R]{}
	return r, either.Subscribe(src, r)
}

// counted wraps src and counts its subscriptions.
func counted[T any](src observable.Observable[T]) (observable.Observable[T], *atomic.Int64) {
	var n atomic.Int64
	return observable.Defer(func() (observable.Observable[T], error) {
		n.Add(1)
		return src, nil
	}), &n
}

// script hands out steps[i] to subscription i, repeating the last step.
type script[T any] struct {
	mu    sync.Mutex
	steps []observable.Observable[T]
	subs  int
}

func newScript[T any](steps ...observable.Observable[T]) *script[T] {
	return &script[T]{steps: steps}
}

func (s *script[T]) source() observable.Observable[T] {
	return observable.Defer(func() (observable.Observable[T], error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.subs
		s.subs++
		if i >= len(s.steps) {
			i = len(s.steps) - 1
		}
		return s.steps[i], nil
	})
}

func (s *script[T]) subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs
}

// emitThenFail delivers values and then fails with err.
func emitThenFail[T any](err error, values ...T) observable.Observable[T] {
	return observable.Create(func(o observable.Observer[T]) disposable.Disposable {
		for _, v := range values {
			o.OnNext(v)
		}
		o.OnError(err)
		return disposable.Empty
	})
}

// hanging never terminates and counts how often it is disposed.
func hanging[T any](disposed *atomic.Int64) observable.Observable[T] {
	return observable.Func[T](func(observable.Observer[T]) disposable.Disposable {
		return disposable.NewFunc(func() { disposed.Add(1) })
	})
}

// manual is a scheduler whose queued actions only run when the test steps it.
// Delays are ignored.
type manual struct {
	mu    sync.Mutex
	queue []*manualTask
}

type manualTask struct {
	action    func()
	cancelled atomic.Bool
}

func (t *manualTask) Dispose() { t.cancelled.Store(true) }

func (m *manual) Now() time.Time { return time.Now() }

func (m *manual) Schedule(action func()) disposable.Disposable {
	t := &manualTask{action: action}
	m.mu.Lock()
	m.queue = append(m.queue, t)
	m.mu.Unlock()
	return t
}

func (m *manual) ScheduleAfter(_ time.Duration, action func()) disposable.Disposable {
	return m.Schedule(action)
}

// step runs up to n live actions and returns how many ran.
func (m *manual) step(n int) int {
	ran := 0
	for ran < n {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return ran
		}
		t := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		if t.cancelled.Load() {
			continue
		}
		t.action()
		ran++
	}
	return ran
}
