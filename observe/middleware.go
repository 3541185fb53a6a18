package observe

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
)

// Middleware attaches tracing, metrics, and logging to stream subscriptions.
//
// Contract:
//   - Concurrency: safe for concurrent use; every subscription gets its own Lifecycle.
//   - Nil: a nil *Middleware is valid and records nothing.
//   - Errors: telemetry never alters the notifications it observes.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Start opens the telemetry lifecycle of one subscription.
// It returns nil when m is nil; all Lifecycle methods accept a nil receiver.
func (m *Middleware) Start(meta StreamMeta) *Lifecycle {
	if m == nil {
		return nil
	}

	ctx, span := m.tracer.StartSpan(context.Background(), meta)
	l := &Lifecycle{
		m:     m,
		meta:  meta,
		ctx:   ctx,
		span:  span,
		start: time.Now(),
		log:   m.logger.WithStream(meta),
	}

	m.metrics.RecordSubscription(ctx, meta)
	l.log.Debug(ctx, "stream subscribed")
	return l
}

// Lifecycle records the events of a single subscription.
type Lifecycle struct {
	m     *Middleware
	meta  StreamMeta
	ctx   context.Context
	span  trace.Span
	start time.Time
	log   Logger
	ended atomic.Bool
}

// Recovered records a failure that was absorbed by resubscribing after delay.
func (l *Lifecycle) Recovered(attempt int, delay time.Duration, err error) {
	if l == nil {
		return
	}

	l.m.tracer.AddRecovery(l.span, attempt, delay, err)
	l.m.metrics.RecordRecovery(l.ctx, l.meta, attempt, delay)

	fields := []Field{
		{Key: "attempt", Value: attempt},
		{Key: "backoff_ms", Value: delay.Milliseconds()},
	}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err})
	}
	l.log.Warn(l.ctx, "stream recovered", fields...)
}

// SlotRestarted records a Serve slot resubscribing. err is nil when the
// previous subscription completed normally.
func (l *Lifecycle) SlotRestarted(slot int, err error, absorbed bool) {
	if l == nil {
		return
	}

	l.m.metrics.RecordSlotRestart(l.ctx, l.meta, slot, absorbed)
	if err == nil {
		l.log.Debug(l.ctx, "slot restarted", Field{Key: "slot", Value: slot})
		return
	}
	l.log.Warn(l.ctx, "slot failed",
		Field{Key: "slot", Value: slot},
		Field{Key: "absorbed", Value: absorbed},
		Field{Key: "error", Value: err},
	)
}

// End closes the lifecycle. Only the first call has an effect; it reports
// whether this call was that one.
func (l *Lifecycle) End(outcome Outcome, err error) bool {
	if l == nil || !l.ended.CompareAndSwap(false, true) {
		return false
	}

	duration := time.Since(l.start)
	l.m.tracer.EndSpan(l.span, outcome, err)
	l.m.metrics.RecordTermination(l.ctx, l.meta, outcome, duration)

	fields := []Field{{Key: "duration_ms", Value: float64(duration.Milliseconds())}}
	switch outcome {
	case OutcomeError:
		fields = append(fields, Field{Key: "error", Value: err})
		l.log.Error(l.ctx, "stream failed", fields...)
	case OutcomeCompleted:
		l.log.Info(l.ctx, "stream completed", fields...)
	default:
		l.log.Debug(l.ctx, "stream disposed", fields...)
	}
	return true
}

// Instrument wraps src so each subscription is traced, counted, and logged
// under meta. Notifications pass through unchanged. A nil m returns src.
func Instrument[T any](m *Middleware, meta StreamMeta, src observable.Observable[T]) observable.Observable[T] {
	if m == nil {
		return src
	}

	return observable.Create(func(o observable.Observer[T]) disposable.Disposable {
		life := m.Start(meta)
		inner := src.Subscribe(observable.Callbacks[T]{
			Next: o.OnNext,
			Error: func(err error) {
				life.End(OutcomeError, err)
				o.OnError(err)
			},
			Completed: func() {
				life.End(OutcomeCompleted, nil)
				o.OnCompleted()
			},
		})

		return disposable.NewFunc(func() {
			inner.Dispose()
			life.End(OutcomeDisposed, nil)
		})
	})
}
