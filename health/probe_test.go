package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
)

func TestProbe_Check(t *testing.T) {
	errUpstream := errors.New("upstream refused")

	tests := []struct {
		name       string
		src        observable.Observable[int]
		config     ProbeConfig
		wantStatus Status
		wantErr    error
		wantValues int
	}{
		{
			name:       "values then complete",
			src:        observable.Just(1, 2),
			wantStatus: StatusHealthy,
			wantValues: 2,
		},
		{
			name:       "error",
			src:        observable.Throw[int](errUpstream),
			wantStatus: StatusUnhealthy,
			wantErr:    errUpstream,
		},
		{
			name:       "empty",
			src:        observable.Empty[int](),
			wantStatus: StatusUnhealthy,
			wantErr:    ErrProbeIncomplete,
		},
		{
			name:       "too few values",
			src:        observable.Just(1),
			config:     ProbeConfig{MinValues: 2},
			wantStatus: StatusUnhealthy,
			wantErr:    ErrProbeIncomplete,
			wantValues: 1,
		},
		{
			name:       "never completes",
			src:        observable.Never[int](),
			config:     ProbeConfig{Timeout: 20 * time.Millisecond},
			wantStatus: StatusUnhealthy,
			wantErr:    ErrCheckTimeout,
		},
		{
			name:       "explicit minimum",
			src:        observable.Just(7),
			config:     ProbeConfig{MinValues: 1},
			wantStatus: StatusHealthy,
			wantValues: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := NewProbe("upstream", tt.src, tt.config)
			result := probe.Check(context.Background())

			if result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", result.Status, tt.wantStatus)
			}
			if !errors.Is(result.Error, tt.wantErr) {
				t.Errorf("Error = %v, want %v", result.Error, tt.wantErr)
			}
			if got := result.Details["values"]; got != tt.wantValues {
				t.Errorf("Details[values] = %v, want %d", got, tt.wantValues)
			}
		})
	}
}

func TestProbe_Slow(t *testing.T) {
	slow := observable.Create(func(o observable.Observer[int]) disposable.Disposable {
		timer := time.AfterFunc(20*time.Millisecond, func() {
			o.OnNext(1)
			o.OnCompleted()
		})
		return disposable.NewFunc(func() { timer.Stop() })
	})

	probe := NewProbe("slow", slow, ProbeConfig{SlowThreshold: time.Millisecond})
	if got := probe.Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("Status = %v, want degraded", got)
	}
}

func TestProbe_Defaults(t *testing.T) {
	probe := NewProbe("p", observable.Empty[string](), ProbeConfig{})

	if probe.Name() != "p" {
		t.Errorf("Name() = %q, want p", probe.Name())
	}
	if probe.config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", probe.config.Timeout)
	}
	if probe.config.MinValues != 1 {
		t.Errorf("MinValues = %d, want 1", probe.config.MinValues)
	}
}

func TestProbe_ResubscribesPerCheck(t *testing.T) {
	subscriptions := 0
	src := observable.Defer(func() (observable.Observable[int], error) {
		subscriptions++
		return observable.Just(subscriptions), nil
	})

	probe := NewProbe("counter", src, ProbeConfig{})
	for range 3 {
		if got := probe.Check(context.Background()).Status; got != StatusHealthy {
			t.Fatalf("Status = %v, want healthy", got)
		}
	}
	if subscriptions != 3 {
		t.Errorf("subscriptions = %d, want 3", subscriptions)
	}
}
