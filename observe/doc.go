// Package observe provides telemetry for reactive streams.
//
// An [Observer] owns the OpenTelemetry tracer and meter providers plus a
// structured [Logger]. [MiddlewareFromObserver] turns it into a [Middleware],
// which the resilience operators accept as their Telemetry option and which
// [Instrument] applies to any observable.
//
// Each subscription is one span named by [StreamMeta.SpanName]. Recoveries
// are span events and increment rx.recoveries; the subscription's end sets
// rx.outcome and feeds rx.terminations and rx.duration_ms.
//
// Two logger backends exist: a dependency-free JSON writer and a zap
// adapter, selected by LoggingConfig.Backend.
package observe
