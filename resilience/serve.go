package resilience

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/health"
	"github.com/jonwraymond/rxops/observable"
	"github.com/jonwraymond/rxops/observe"
	"github.com/jonwraymond/rxops/scheduler"
)

// ServeConfig configures Serve.
type ServeConfig struct {
	// MaxConcurrent is the number of slots, each holding at most one live
	// source subscription.
	// Default: DefaultMaxConcurrent(runtime.GOMAXPROCS(0))
	MaxConcurrent int

	// OnError decides whether a slot failure is absorbed. Absorbed failures
	// restart the slot; any other failure stops the whole server.
	// Default: nothing is absorbed.
	OnError func(err error) bool

	// Scheduler runs the slot loops.
	// Default: a Pool scheduler sized to MaxConcurrent.
	Scheduler scheduler.Scheduler

	// Telemetry records the subscription's span, slot restarts and outcome.
	Telemetry *observe.Middleware

	// Meta names the server for telemetry and health checks.
	Meta observe.StreamMeta
}

// DefaultMaxConcurrent returns the default slot count for procs processors.
func DefaultMaxConcurrent(procs int) int {
	if procs < 1 {
		procs = 1
	}
	return (1000 / 8) * procs
}

// ServerStats is a snapshot of a Server's counters across all of its
// subscriptions.
type ServerStats struct {
	MaxConcurrent int
	Active        int   // live inner subscriptions
	MaxActive     int   // highest Active observed
	Subscriptions int64 // inner subscriptions started
	Absorbed      int64 // failures absorbed by OnError
	Faulted       int64 // subscriptions stopped by a failure
}

// Server runs MaxConcurrent slots. Each slot subscribes to a source from the
// factory, and subscribes to a fresh one whenever the previous completes or
// fails with an absorbed error, until the subscription is disposed.
//
// Values are forwarded straight to the subscriber from whichever slot
// produced them. They are not serialized: OnNext may be called concurrently
// from different slots, so the subscriber must be safe for concurrent use.
// Server also implements health.Checker.
type Server[T any] struct {
	factory func() (observable.Observable[T], error)
	config  ServeConfig

	mu           sync.Mutex
	stats        ServerStats
	lastAbsorbed int64
}

// Serve creates a Server over factory. Invalid arguments are reported to
// each subscriber as ErrInvalidArgument.
func Serve[T any](factory func() (observable.Observable[T], error), config ServeConfig) *Server[T] {
	if config.MaxConcurrent == 0 {
		config.MaxConcurrent = DefaultMaxConcurrent(runtime.GOMAXPROCS(0))
	}
	if config.Meta.Operator == "" {
		config.Meta.Operator = "serve"
	}

	return &Server[T]{
		factory: factory,
		config:  config,
		stats:   ServerStats{MaxConcurrent: config.MaxConcurrent},
	}
}

// Subscribe starts the slots. A non-absorbed failure is delivered to
// observer and disposes every slot.
func (s *Server[T]) Subscribe(observer observable.Observer[T]) disposable.Disposable {
	if err := s.validate(); err != nil {
		return observable.Throw[T](err).Subscribe(observer)
	}

	return observable.Create(func(out observable.Observer[T]) disposable.Disposable {
		sched := s.config.Scheduler
		if sched == nil {
			sched = scheduler.NewPool(scheduler.PoolConfig{MaxConcurrent: s.config.MaxConcurrent})
		}

		run := &serveRun[T]{
			server: s,
			out:    out,
			life:   s.config.Telemetry.Start(s.config.Meta),
			sched:  sched,
		}

		root := disposable.NewComposite(
			disposable.NewFunc(func() { run.life.End(observe.OutcomeDisposed, nil) }),
		)
		for slot := 0; slot < s.config.MaxConcurrent; slot++ {
			root.Add(run.startSlot(slot))
		}
		return root
	}).Subscribe(observer)
}

func (s *Server[T]) validate() error {
	if s.factory == nil {
		return invalidArgument("serve: nil factory")
	}
	if s.config.MaxConcurrent < 0 {
		return invalidArgument("serve: negative max concurrency %d", s.config.MaxConcurrent)
	}
	return nil
}

// Stats returns a snapshot of the server counters.
func (s *Server[T]) Stats() ServerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Config returns the server configuration with defaults applied.
func (s *Server[T]) Config() ServeConfig {
	return s.config
}

// Name returns the stream ID of the server.
func (s *Server[T]) Name() string {
	return s.config.Meta.StreamID()
}

// Check reports unhealthy once a failure has stopped the server with no
// slots left running, and degraded while failures are being absorbed.
func (s *Server[T]) Check(_ context.Context) health.Result {
	s.mu.Lock()
	stats := s.stats
	absorbedSince := stats.Absorbed - s.lastAbsorbed
	s.lastAbsorbed = stats.Absorbed
	s.mu.Unlock()

	details := map[string]any{
		"max_concurrent": stats.MaxConcurrent,
		"active":         stats.Active,
		"max_active":     stats.MaxActive,
		"subscriptions":  stats.Subscriptions,
		"absorbed":       stats.Absorbed,
		"faulted":        stats.Faulted,
	}

	switch {
	case stats.Faulted > 0 && stats.Active == 0:
		return health.Unhealthy("server stopped by a failure", ErrServerFaulted).WithDetails(details)
	case absorbedSince > 0:
		return health.Degraded(fmt.Sprintf("%d failures absorbed since last check", absorbedSince)).WithDetails(details)
	default:
		return health.Healthy("serving").WithDetails(details)
	}
}

func (s *Server[T]) enter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Active++
	s.stats.Subscriptions++
	if s.stats.Active > s.stats.MaxActive {
		s.stats.MaxActive = s.stats.Active
	}
}

func (s *Server[T]) leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Active--
}

func (s *Server[T]) countAbsorbed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Absorbed++
}

func (s *Server[T]) countFaulted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Faulted++
}

// serveRun is the state of one Server subscription.
type serveRun[T any] struct {
	server *Server[T]
	out    observable.Observer[T]
	life   *observe.Lifecycle
	sched  scheduler.Scheduler

	faulted atomic.Bool
}

type created[T any] struct {
	src observable.Observable[T]
	err error
}

// startSlot runs one slot loop. The slot's Serial holds the live inner
// subscription and is rebound on every iteration.
func (r *serveRun[T]) startSlot(slot int) disposable.Disposable {
	current := disposable.NewSerial()

	loop := scheduler.ScheduleRecursive(r.sched, 0, func(self scheduler.Reschedule) {
		made, perr := guard(PolicyFactory, func() created[T] {
			src, err := r.server.factory()
			return created[T]{src, err}
		})
		if perr != nil {
			r.fault(perr)
			return
		}
		if made.err != nil {
			r.failed(slot, made.err, self)
			return
		}
		if made.src == nil {
			r.fault(&PolicyError{Policy: PolicyFactory, Err: ErrNilSource})
			return
		}

		o := &slotObserver[T]{run: r, slot: slot, self: self}
		r.server.enter()

		inner := disposable.NewSingle()
		current.Set(disposable.NewComposite(inner, disposable.NewFunc(o.detach)))
		inner.Set(made.src.Subscribe(o))
	})

	return disposable.NewComposite(loop, current)
}

// failed handles a slot failure: absorbed failures restart the slot, the
// rest stop the server.
func (r *serveRun[T]) failed(slot int, err error, self scheduler.Reschedule) {
	absorbed := false
	if onError := r.server.config.OnError; onError != nil {
		ok, perr := guard(PolicyOnError, func() bool { return onError(err) })
		if perr != nil {
			r.life.SlotRestarted(slot, err, false)
			r.fault(perr)
			return
		}
		absorbed = ok
	}

	r.life.SlotRestarted(slot, err, absorbed)
	if !absorbed {
		r.fault(err)
		return
	}
	r.server.countAbsorbed()
	self(0)
}

func (r *serveRun[T]) fault(err error) {
	if r.faulted.CompareAndSwap(false, true) {
		r.server.countFaulted()
	}
	r.life.End(observe.OutcomeError, err)
	r.out.OnError(err)
}

// slotObserver receives the notifications of one inner subscription.
type slotObserver[T any] struct {
	run  *serveRun[T]
	slot int
	self scheduler.Reschedule
	done atomic.Bool
}

func (o *slotObserver[T]) OnNext(value T) {
	if o.done.Load() {
		return
	}
	o.run.out.OnNext(value)
}

func (o *slotObserver[T]) OnError(err error) {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	o.run.server.leave()
	o.run.failed(o.slot, err, o.self)
}

func (o *slotObserver[T]) OnCompleted() {
	if !o.done.CompareAndSwap(false, true) {
		return
	}
	o.run.server.leave()
	o.run.life.SlotRestarted(o.slot, nil, false)
	o.self(0)
}

// detach runs when the inner subscription is disposed before it terminated.
func (o *slotObserver[T]) detach() {
	if o.done.CompareAndSwap(false, true) {
		o.run.server.leave()
	}
}
