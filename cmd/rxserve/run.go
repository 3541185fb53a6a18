package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/rxops/either"
	"github.com/jonwraymond/rxops/health"
	"github.com/jonwraymond/rxops/observable"
	"github.com/jonwraymond/rxops/observe"
	"github.com/jonwraymond/rxops/resilience"
)

const serviceName = "rxserve"

// jobEvent is a job value on the left or a retried job failure on the right.
type jobEvent = either.Either[tick, error]

var errInvalidConfig = errors.New("rxserve: invalid config")

// Validate checks the fields Run cannot default.
func (c *Config) Validate() error {
	switch {
	case c.Ticks < 1:
		return fmt.Errorf("%w: ticks must be at least 1, got %d", errInvalidConfig, c.Ticks)
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive, got %s", errInvalidConfig, c.Interval)
	case c.FailureRate < 0 || c.FailureRate > 1:
		return fmt.Errorf("%w: failure rate must be within [0, 1], got %g", errInvalidConfig, c.FailureRate)
	case c.Retries < 1:
		return fmt.Errorf("%w: retries must be at least 1, got %d", errInvalidConfig, c.Retries)
	case c.MaxConcurrent < 0:
		return fmt.Errorf("%w: max concurrent must not be negative, got %d", errInvalidConfig, c.MaxConcurrent)
	case c.ReportInterval <= 0:
		return fmt.Errorf("%w: report interval must be positive, got %s", errInvalidConfig, c.ReportInterval)
	}
	return nil
}

// Run serves synthetic jobs until ctx is done or the error budget is spent.
// Health checks and Prometheus metrics are served on cfg.HTTPAddr.
func Run(ctx context.Context, cfg *Config, cmd *cobra.Command) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: serviceName,
		Version:     Version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.TracingExporter != "" && cfg.TracingExporter != "none",
			Exporter:  cfg.TracingExporter,
			SamplePct: 1,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.MetricsExporter != "" && cfg.MetricsExporter != "none",
			Exporter: cfg.MetricsExporter,
		},
		Logging: observe.LoggingConfig{Enabled: true, Level: cfg.LogLevel, Backend: cfg.LogBackend},
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}
	logger := obs.Logger()

	server := newServer(cfg, mw)

	agg := health.NewAggregator()
	agg.Register(server)
	agg.Register(health.NewProbe(serviceName+".probe",
		resilience.Timeout(newJob(0, 1, time.Millisecond, 0), resilience.TimeoutConfig{Timeout: cfg.Timeout}),
		health.ProbeConfig{Timeout: cfg.Timeout},
	))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	mux.Handle("GET /metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
		// ReadTimeout also sets ReadHeaderTimeout and IdleTimeout.
		ReadTimeout: 30 * time.Second,
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var values, retried atomic.Int64
	sub := server.Subscribe(observable.Callbacks[jobEvent]{
		Next: func(e jobEvent) {
			e.Switch(
				func(tick) { values.Add(1) },
				func(error) { retried.Add(1) },
			)
		},
		Error:     func(err error) { cancel(err) },
		Completed: func() { cancel(nil) },
	})

	var wg conc.WaitGroup
	wg.Go(func() {
		logger.Info(runCtx, "http listening", observe.Field{Key: "addr", Value: cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel(fmt.Errorf("http server: %w", err))
		}
	})
	wg.Go(func() {
		report(runCtx, logger, server, cfg.ReportInterval, &values, &retried)
	})

	<-runCtx.Done()
	sub.Dispose()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "http shutdown", observe.Field{Key: "error", Value: err.Error()})
	}
	wg.Wait()

	stats := server.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "values=%d retried=%d subscriptions=%d absorbed=%d faulted=%d\n",
		values.Load(), retried.Load(), stats.Subscriptions, stats.Absorbed, stats.Faulted)

	if err := context.Cause(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newServer builds the job server. Each slot runs one job at a time; a job
// that goes quiet for cfg.Timeout is failed, and a job is resubscribed until
// cfg.Retries subscriptions in a row fail. Slot failures draw on an error
// budget and stop the server once it is spent.
func newServer(cfg *Config, mw *observe.Middleware) *resilience.Server[jobEvent] {
	budget := resilience.NewErrorBudget(resilience.ErrorBudgetConfig{
		MaxFailures: cfg.MaxFailures,
		Window:      cfg.FailureWindow,
	})
	backoff := resilience.NewBackoff(resilience.BackoffConfig{
		InitialDelay: cfg.Interval,
		MaxDelay:     cfg.Timeout,
		Jitter:       true,
	})

	var jobs atomic.Int64
	return resilience.Serve(func() (observable.Observable[jobEvent], error) {
		id := int(jobs.Add(1))
		job := resilience.Timeout(
			newJob(id, cfg.Ticks, cfg.Interval, cfg.FailureRate),
			resilience.TimeoutConfig{Timeout: cfg.Timeout},
		)
		return resilience.RetryConsecutive(job, resilience.RetryConfig{
			Count:     cfg.Retries,
			Backoff:   backoff,
			Telemetry: mw,
			Meta:      observe.StreamMeta{Namespace: serviceName, Name: fmt.Sprintf("job-%d", id)},
		}), nil
	}, resilience.ServeConfig{
		MaxConcurrent: cfg.MaxConcurrent,
		OnError:       budget.Absorb,
		Telemetry:     mw,
		Meta:          observe.StreamMeta{Namespace: serviceName, Name: "jobs"},
	})
}

func report(ctx context.Context, logger observe.Logger, server *resilience.Server[jobEvent], every time.Duration, values, retried *atomic.Int64) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := server.Stats()
			logger.Info(ctx, "server stats",
				observe.Field{Key: "active", Value: s.Active},
				observe.Field{Key: "max_active", Value: s.MaxActive},
				observe.Field{Key: "subscriptions", Value: s.Subscriptions},
				observe.Field{Key: "absorbed", Value: s.Absorbed},
				observe.Field{Key: "values", Value: values.Load()},
				observe.Field{Key: "retried", Value: retried.Load()},
			)
		}
	}
}
