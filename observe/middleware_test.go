package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
)

type telemetry struct {
	mw     *Middleware
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newTelemetry(t *testing.T) telemetry {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	metrics, reader := newTestMetrics(t)
	logs := &bytes.Buffer{}
	return telemetry{
		mw:     NewMiddleware(&tracerImpl{tracer: tp.Tracer("test")}, metrics, NewLoggerWithWriter("debug", logs)),
		spans:  spans,
		reader: reader,
		logs:   logs,
	}
}

func TestInstrument_Completed(t *testing.T) {
	tel := newTelemetry(t)
	meta := StreamMeta{Name: "numbers", Operator: "just"}

	got, err := observable.Collect(context.Background(), Instrument(tel.mw, meta, observable.Just(1, 2, 3)))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("values = %v, want [1 2 3]", got)
	}

	spans := tel.spans.Ended()
	if len(spans) != 1 || spans[0].Name() != "rx.just.numbers" {
		t.Fatalf("spans = %v, want one rx.just.numbers", spans)
	}

	rm := collect(t, tel.reader)
	if n := sumOf(t, rm, MetricSubscriptions); n != 1 {
		t.Errorf("%s = %d, want 1", MetricSubscriptions, n)
	}
	if n := sumOf(t, rm, MetricTerminations); n != 1 {
		t.Errorf("%s = %d, want 1", MetricTerminations, n)
	}
	if !strings.Contains(tel.logs.String(), `"msg":"stream completed"`) {
		t.Errorf("logs missing completion: %s", tel.logs.String())
	}
}

func TestInstrument_ErrorPassesThroughUnchanged(t *testing.T) {
	tel := newTelemetry(t)
	testErr := errors.New("boom")

	_, err := observable.Collect(context.Background(), Instrument(tel.mw, StreamMeta{Name: "failing"}, observable.Throw[int](testErr)))
	if err != testErr {
		t.Errorf("Collect() error = %v, want %v", err, testErr)
	}

	if n := sumOf(t, collect(t, tel.reader), MetricErrors); n != 1 {
		t.Errorf("%s = %d, want 1", MetricErrors, n)
	}
	if !strings.Contains(tel.logs.String(), `"error":"boom"`) {
		t.Errorf("logs missing error: %s", tel.logs.String())
	}
}

func TestInstrument_DisposeEndsSpanOnce(t *testing.T) {
	tel := newTelemetry(t)

	var upstreamDisposed bool
	src := observable.Create(func(o observable.Observer[int]) disposable.Disposable {
		return disposable.NewFunc(func() { upstreamDisposed = true })
	})

	sub := Instrument(tel.mw, StreamMeta{Name: "idle"}, src).Subscribe(observable.Callbacks[int]{})
	sub.Dispose()
	sub.Dispose()

	if !upstreamDisposed {
		t.Error("upstream not disposed")
	}
	spans := tel.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "rx.outcome" && kv.Value.AsString() != string(OutcomeDisposed) {
			t.Errorf("rx.outcome = %s, want disposed", kv.Value.AsString())
		}
	}
}

func TestInstrument_NilMiddlewareReturnsSource(t *testing.T) {
	got, err := observable.Collect(context.Background(), Instrument[int](nil, StreamMeta{Name: "x"}, observable.Just(1, 2)))
	if err != nil || len(got) != 2 {
		t.Errorf("Collect() = %v, %v, want [1 2], nil", got, err)
	}
}

func TestLifecycle_RecoveredAndSlots(t *testing.T) {
	tel := newTelemetry(t)
	life := tel.mw.Start(StreamMeta{Name: "svc", Operator: "serve"})

	life.Recovered(1, 25*time.Millisecond, errors.New("transient"))
	life.SlotRestarted(0, nil, false)
	life.SlotRestarted(1, errors.New("flaky"), true)
	if !life.End(OutcomeCompleted, nil) {
		t.Error("first End() = false, want true")
	}
	if life.End(OutcomeError, errors.New("late")) {
		t.Error("second End() = true, want false")
	}

	rm := collect(t, tel.reader)
	if n := sumOf(t, rm, MetricRecoveries); n != 1 {
		t.Errorf("%s = %d, want 1", MetricRecoveries, n)
	}
	if n := sumOf(t, rm, MetricSlotRestarts); n != 2 {
		t.Errorf("%s = %d, want 2", MetricSlotRestarts, n)
	}
	if n := sumOf(t, rm, MetricErrors); n != 0 {
		t.Errorf("%s = %d, want 0", MetricErrors, n)
	}
	if !strings.Contains(tel.logs.String(), `"msg":"slot failed"`) {
		t.Errorf("logs missing slot failure: %s", tel.logs.String())
	}
}

func TestLifecycle_NilIsNoop(t *testing.T) {
	var mw *Middleware
	life := mw.Start(StreamMeta{Name: "x"})
	if life != nil {
		t.Fatal("Start() on nil middleware returned non-nil lifecycle")
	}
	life.Recovered(1, 0, nil)
	life.SlotRestarted(0, nil, true)
	if life.End(OutcomeCompleted, nil) {
		t.Error("End() on nil lifecycle = true")
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("MiddlewareFromObserver(nil) error = %v, want ErrNilObserver", err)
	}

	obs, err := NewObserver(context.Background(), Config{ServiceName: "rxserve"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil || mw == nil {
		t.Fatalf("MiddlewareFromObserver() = %v, %v", mw, err)
	}
}
