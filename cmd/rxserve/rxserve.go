package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const (
	configF         = "config"
	httpAddrF       = "http-addr"
	logLevelF       = "log-level"
	logBackendF     = "log-backend"
	metricsF        = "metrics-exporter"
	tracingF        = "tracing-exporter"
	maxConcurrentF  = "max-concurrent"
	ticksF          = "ticks"
	intervalF       = "interval"
	failureRateF    = "failure-rate"
	timeoutF        = "timeout"
	retriesF        = "retries"
	maxFailuresF    = "max-failures"
	failureWindowF  = "failure-window"
	reportIntervalF = "report-interval"

	defaultConfig         = ""
	defaultHTTPAddr       = ":8080"
	defaultLogLevel       = "info"
	defaultLogBackend     = "zap"
	defaultMetrics        = "prometheus"
	defaultTracing        = "none"
	defaultMaxConcurrent  = 0
	defaultTicks          = 10
	defaultInterval       = 200 * time.Millisecond
	defaultFailureRate    = 0.05
	defaultTimeout        = 2 * time.Second
	defaultRetries        = 3
	defaultMaxFailures    = 5
	defaultFailureWindow  = time.Minute
	defaultReportInterval = 10 * time.Second

	configFlagUsage     = "The yaml configuration file."
	httpAddrUsage       = "Address of the health and metrics endpoints."
	logLevelUsage       = "Log level. Options: debug, info, warn, error."
	logBackendUsage     = "Log backend. Options: json, zap."
	metricsUsage        = "Metrics exporter. Options: prometheus, otlp, stdout, none."
	tracingUsage        = "Tracing exporter. Options: otlp, stdout, none."
	maxConcurrentUsage  = "Number of jobs run at once. Zero sizes it from GOMAXPROCS."
	ticksUsage          = "Number of values each job emits before it completes."
	intervalUsage       = "Delay between job values."
	failureRateUsage    = "Probability that a job fails instead of emitting a value."
	timeoutUsage        = "Longest a job may go without emitting before it is failed."
	retriesUsage        = "Consecutive failed subscriptions a job gets before its slot fails."
	maxFailuresUsage    = "Slot failures within the failure window that stop the server."
	failureWindowUsage  = "Window over which slot failures are counted."
	reportIntervalUsage = "Interval between server statistics log lines."
)

// Config is the rxserve configuration. Values come from flags, RXSERVE_
// environment variables and the optional yaml file, in that order of
// precedence.
type Config struct {
	HTTPAddr        string        `mapstructure:"http-addr"`
	LogLevel        string        `mapstructure:"log-level"`
	LogBackend      string        `mapstructure:"log-backend"`
	MetricsExporter string        `mapstructure:"metrics-exporter"`
	TracingExporter string        `mapstructure:"tracing-exporter"`
	MaxConcurrent   int           `mapstructure:"max-concurrent"`
	Ticks           int           `mapstructure:"ticks"`
	Interval        time.Duration `mapstructure:"interval"`
	FailureRate     float64       `mapstructure:"failure-rate"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Retries         int           `mapstructure:"retries"`
	MaxFailures     int           `mapstructure:"max-failures"`
	FailureWindow   time.Duration `mapstructure:"failure-window"`
	ReportInterval  time.Duration `mapstructure:"report-interval"`
}

// RunFunc runs the server until ctx is done or the server stops.
type RunFunc func(ctx context.Context, cfg *Config, cmd *cobra.Command) error

func NewCmd(run RunFunc) *cobra.Command {
	var cfgFile string

	rxCmd := &cobra.Command{
		Use:     "rxserve [flags]",
		Short:   "Runs flaky synthetic jobs under a supervised stream server.",
		Version: Version,
	}

	rxCmd.Flags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	rxCmd.Flags().String(httpAddrF, defaultHTTPAddr, httpAddrUsage)
	rxCmd.Flags().String(logLevelF, defaultLogLevel, logLevelUsage)
	rxCmd.Flags().String(logBackendF, defaultLogBackend, logBackendUsage)
	rxCmd.Flags().String(metricsF, defaultMetrics, metricsUsage)
	rxCmd.Flags().String(tracingF, defaultTracing, tracingUsage)
	rxCmd.Flags().Int(maxConcurrentF, defaultMaxConcurrent, maxConcurrentUsage)
	rxCmd.Flags().Int(ticksF, defaultTicks, ticksUsage)
	rxCmd.Flags().Duration(intervalF, defaultInterval, intervalUsage)
	rxCmd.Flags().Float64(failureRateF, defaultFailureRate, failureRateUsage)
	rxCmd.Flags().Duration(timeoutF, defaultTimeout, timeoutUsage)
	rxCmd.Flags().Int(retriesF, defaultRetries, retriesUsage)
	rxCmd.Flags().Int(maxFailuresF, defaultMaxFailures, maxFailuresUsage)
	rxCmd.Flags().Duration(failureWindowF, defaultFailureWindow, failureWindowUsage)
	rxCmd.Flags().Duration(reportIntervalF, defaultReportInterval, reportIntervalUsage)

	rxCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		v.SetEnvPrefix("RXSERVE")
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg := new(Config)
		if err := v.Unmarshal(cfg); err != nil {
			return err
		}

		return run(cmd.Context(), cfg, cmd)
	}

	return rxCmd
}
