// Package health reports the health of long-running streams.
//
// A Checker reports a Result with a Status: healthy, degraded or unhealthy.
// resilience.Server implements Checker, reporting degraded while its error
// classifier is absorbing failures and unhealthy once a failure stopped it.
// Probe checks a dependency by subscribing to a short stream and waiting for
// it to complete.
//
// # Aggregating
//
//	agg := health.NewAggregator()
//	agg.Register(server)
//	agg.Register(health.NewProbe("upstream", ping, health.ProbeConfig{}))
//
//	results := agg.CheckAll(ctx)
//	overall := health.Overall(results)
//
// CheckAll runs checkers concurrently. A checker that panics or overruns the
// aggregator timeout is reported unhealthy.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// installs /healthz (liveness), /readyz (overall status as text), /health
// (JSON for every check) and /health/{name} (JSON for one check).
package health
