package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/rxops/observable"
)

func defaultTestConfig() Config {
	return Config{
		HTTPAddr:        defaultHTTPAddr,
		LogLevel:        defaultLogLevel,
		LogBackend:      defaultLogBackend,
		MetricsExporter: defaultMetrics,
		TracingExporter: defaultTracing,
		MaxConcurrent:   defaultMaxConcurrent,
		Ticks:           defaultTicks,
		Interval:        defaultInterval,
		FailureRate:     defaultFailureRate,
		Timeout:         defaultTimeout,
		Retries:         defaultRetries,
		MaxFailures:     defaultMaxFailures,
		FailureWindow:   defaultFailureWindow,
		ReportInterval:  defaultReportInterval,
	}
}

func TestNewCmd_ConfigPrecedence(t *testing.T) {
	tests := map[string]struct {
		args   []string
		yaml   string
		env    map[string]string
		modify func(*Config)
	}{
		"defaults": {
			modify: func(*Config) {},
		},
		"flags": {
			args: []string{"--max-concurrent", "4", "--interval", "1s", "--failure-rate", "0.5"},
			modify: func(c *Config) {
				c.MaxConcurrent = 4
				c.Interval = time.Second
				c.FailureRate = 0.5
			},
		},
		"yaml": {
			yaml: "retries: 7\nlog-level: debug\nfailure-window: 30s\n",
			modify: func(c *Config) {
				c.Retries = 7
				c.LogLevel = "debug"
				c.FailureWindow = 30 * time.Second
			},
		},
		"env": {
			env: map[string]string{"RXSERVE_HTTP_ADDR": ":9999", "RXSERVE_TICKS": "3"},
			modify: func(c *Config) {
				c.HTTPAddr = ":9999"
				c.Ticks = 3
			},
		},
		"flag beats env beats yaml": {
			args: []string{"--retries", "2"},
			yaml: "retries: 7\nticks: 20\nmax-failures: 9\n",
			env:  map[string]string{"RXSERVE_RETRIES": "5", "RXSERVE_TICKS": "4"},
			modify: func(c *Config) {
				c.Retries = 2
				c.Ticks = 4
				c.MaxFailures = 9
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			args := append([]string{}, tc.args...)
			if tc.yaml != "" {
				path := filepath.Join(t.TempDir(), "rxserve.yaml")
				if err := os.WriteFile(path, []byte(tc.yaml), 0o600); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
				args = append(args, "--config", path)
			}

			var got *Config
			cmd := NewCmd(func(_ context.Context, cfg *Config, _ *cobra.Command) error {
				got = cfg
				return nil
			})
			cmd.SetArgs(args)
			if err := cmd.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			want := defaultTestConfig()
			tc.modify(&want)
			if got == nil {
				t.Fatal("run was not called")
			}
			if !reflect.DeepEqual(*got, want) {
				t.Errorf("config = %+v, want %+v", *got, want)
			}
		})
	}
}

func TestNewCmd_MissingConfigFile(t *testing.T) {
	cmd := NewCmd(func(context.Context, *Config, *cobra.Command) error {
		t.Error("run called with a missing config file")
		return nil
	})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Execute() error = nil, want an error")
	}
}

func TestNewCmd_RunError(t *testing.T) {
	errStopped := errors.New("stopped")
	cmd := NewCmd(func(context.Context, *Config, *cobra.Command) error { return errStopped })
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(context.Background()); !errors.Is(err, errStopped) {
		t.Errorf("Execute() error = %v, want %v", err, errStopped)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero ticks", func(c *Config) { c.Ticks = 0 }, true},
		{"zero interval", func(c *Config) { c.Interval = 0 }, true},
		{"failure rate above one", func(c *Config) { c.FailureRate = 1.5 }, true},
		{"negative failure rate", func(c *Config) { c.FailureRate = -0.1 }, true},
		{"zero retries", func(c *Config) { c.Retries = 0 }, true},
		{"negative max concurrent", func(c *Config) { c.MaxConcurrent = -1 }, true},
		{"zero report interval", func(c *Config) { c.ReportInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errInvalidConfig) {
				t.Errorf("Validate() error = %v, want errInvalidConfig", err)
			}
		})
	}
}

func TestNewJob(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	values, err := observable.Collect(ctx, newJob(7, 3, time.Millisecond, 0))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []tick{{Job: 7, Seq: 1}, {Job: 7, Seq: 2}, {Job: 7, Seq: 3}}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestNewJob_Fails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	values, err := observable.Collect(ctx, newJob(2, 3, time.Millisecond, 1))
	var jobErr *errJobFailed
	if !errors.As(err, &jobErr) {
		t.Fatalf("Collect() error = %v, want *errJobFailed", err)
	}
	if jobErr.Error() != "job 2 failed at tick 1" {
		t.Errorf("Error() = %q, want job 2 failed at tick 1", jobErr.Error())
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want none", values)
	}
}

func TestNewServer_Budget(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.MaxConcurrent = 2
	cfg.Interval = time.Millisecond
	cfg.FailureRate = 1
	cfg.Retries = 1
	cfg.MaxFailures = 2

	server := newServer(&cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := observable.Collect(ctx, observable.Observable[jobEvent](server))

	var jobErr *errJobFailed
	if !errors.As(err, &jobErr) {
		t.Fatalf("Collect() error = %v, want *errJobFailed", err)
	}
	if got := server.Stats().Faulted; got != 1 {
		t.Errorf("Faulted = %d, want 1", got)
	}
}
