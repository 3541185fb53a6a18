package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricSubscriptions = "rx.subscriptions"
	MetricRecoveries    = "rx.recoveries"
	MetricBackoff       = "rx.backoff_ms"
	MetricTerminations  = "rx.terminations"
	MetricErrors        = "rx.errors"
	MetricDuration      = "rx.duration_ms"
	MetricSlotRestarts  = "rx.slot.restarts"
)

// Metrics records stream lifecycle events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordSubscription(ctx context.Context, meta StreamMeta)
	RecordRecovery(ctx context.Context, meta StreamMeta, attempt int, delay time.Duration)
	RecordTermination(ctx context.Context, meta StreamMeta, outcome Outcome, duration time.Duration)
	RecordSlotRestart(ctx context.Context, meta StreamMeta, slot int, absorbed bool)
}

type metricsImpl struct {
	subscriptions metric.Int64Counter
	recoveries    metric.Int64Counter
	backoff       metric.Float64Histogram
	terminations  metric.Int64Counter
	errors        metric.Int64Counter
	duration      metric.Float64Histogram
	slotRestarts  metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.subscriptions, err = meter.Int64Counter(MetricSubscriptions,
		metric.WithDescription("Subscriptions to instrumented streams"),
		metric.WithUnit("{subscription}"),
	); err != nil {
		return nil, err
	}
	if m.recoveries, err = meter.Int64Counter(MetricRecoveries,
		metric.WithDescription("Failures recovered by resubscribing"),
		metric.WithUnit("{recovery}"),
	); err != nil {
		return nil, err
	}
	if m.backoff, err = meter.Float64Histogram(MetricBackoff,
		metric.WithDescription("Delay applied before resubscribing"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.terminations, err = meter.Int64Counter(MetricTerminations,
		metric.WithDescription("Subscriptions that ended"),
		metric.WithUnit("{subscription}"),
	); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter(MetricErrors,
		metric.WithDescription("Subscriptions that ended with an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Subscription lifetime in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.slotRestarts, err = meter.Int64Counter(MetricSlotRestarts,
		metric.WithDescription("Serve slot resubscriptions"),
		metric.WithUnit("{restart}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordSubscription(ctx context.Context, meta StreamMeta) {
	m.subscriptions.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

func (m *metricsImpl) RecordRecovery(ctx context.Context, meta StreamMeta, attempt int, delay time.Duration) {
	opt := metric.WithAttributes(meta.attributes()...)
	m.recoveries.Add(ctx, 1, opt)
	m.backoff.Record(ctx, float64(delay.Milliseconds()), opt)
}

func (m *metricsImpl) RecordTermination(ctx context.Context, meta StreamMeta, outcome Outcome, duration time.Duration) {
	attrs := append(meta.attributes(), attribute.String("rx.outcome", string(outcome)))
	opt := metric.WithAttributes(attrs...)

	m.terminations.Add(ctx, 1, opt)
	if outcome == OutcomeError {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordSlotRestart(ctx context.Context, meta StreamMeta, slot int, absorbed bool) {
	attrs := append(meta.attributes(),
		attribute.Int("rx.slot", slot),
		attribute.Bool("rx.absorbed", absorbed),
	)
	m.slotRestarts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

type noopMetrics struct{}

func (noopMetrics) RecordSubscription(context.Context, StreamMeta)                        {}
func (noopMetrics) RecordRecovery(context.Context, StreamMeta, int, time.Duration)        {}
func (noopMetrics) RecordTermination(context.Context, StreamMeta, Outcome, time.Duration) {}
func (noopMetrics) RecordSlotRestart(context.Context, StreamMeta, int, bool)              {}
