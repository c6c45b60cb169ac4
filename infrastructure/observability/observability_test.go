package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/telemetry"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	infratel "github.com/felixgeelhaar/goap-go/infrastructure/telemetry"
)

func TestNoopTracer(t *testing.T) {
	tracer := NewNoopTracer()

	ctx := context.Background()
	newCtx, span := tracer.StartSpan(ctx, "goap.plan")
	if newCtx != ctx {
		t.Error("noop tracer should return the input context")
	}

	// These should not panic
	span.SetAttributes(telemetry.String(telemetry.KeyGoal, "KillEnemy"))
	span.RecordError(errors.New("no plan"))
	span.SetStatus(telemetry.StatusCodeError, "no plan")
	span.AddEvent("expanded")
	span.End()
}

func TestNoopProvider(t *testing.T) {
	provider := NewNoopProvider()

	if provider.Tracer() == nil {
		t.Error("expected non-nil tracer")
	}
	if _, ok := provider.Metrics().(infratel.NoopMetricsProvider); !ok {
		t.Errorf("Metrics() = %T, want NoopMetricsProvider", provider.Metrics())
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "goap" {
		t.Errorf("ServiceName = %s, want goap", cfg.ServiceName)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if cfg.Tracing.Exporter != ExporterNoop {
		t.Errorf("Tracing.Exporter = %s, want noop", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %v, want 1.0", cfg.Tracing.SampleRate)
	}
	if cfg.Metrics {
		t.Error("metrics should be disabled by default")
	}
}

func TestConfigOptions(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithServiceName("arena"),
		WithServiceVersion("1.2.3"),
		WithEnvironment("staging"),
		WithTracing(ExporterOTLP, "localhost:4317"),
		WithTracingInsecure(),
		WithSampleRate(0.25),
		WithMetrics(),
	} {
		opt(&cfg)
	}

	if cfg.ServiceName != "arena" || cfg.ServiceVersion != "1.2.3" || cfg.Environment != "staging" {
		t.Errorf("service = %s/%s/%s, want arena/1.2.3/staging", cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != ExporterOTLP || cfg.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("Tracing = %+v, want otlp at localhost:4317", cfg.Tracing)
	}
	if !cfg.Tracing.Insecure {
		t.Error("Tracing.Insecure = false")
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing.SampleRate = %v, want 0.25", cfg.Tracing.SampleRate)
	}
	if !cfg.Metrics {
		t.Error("Metrics = false")
	}

	WithStdoutTracing(&buf)(&cfg)
	if cfg.Tracing.Exporter != ExporterStdout || cfg.Tracing.Writer != &buf {
		t.Errorf("WithStdoutTracing did not set exporter and writer")
	}
}

func TestProviderWithNoopExporter(t *testing.T) {
	provider, err := New(WithTracing(ExporterNoop, ""))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := provider.Tracer().(*NoopTracer); !ok {
		t.Errorf("Tracer() = %T, want *NoopTracer", provider.Tracer())
	}
}

func TestProviderWithStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	provider, err := New(
		WithServiceName("test-service"),
		WithStdoutTracing(&buf),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := provider.Tracer().StartSpan(context.Background(), "goap.plan",
		telemetry.WithAttributes(telemetry.Int(telemetry.KeyGoalKeys, 2)),
		telemetry.WithSpanKind(telemetry.SpanKindInternal),
	)
	span.SetAttributes(telemetry.Float64(telemetry.KeyPlanCost, 6))
	span.SetStatus(telemetry.StatusCodeOK, "")
	span.End()

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "goap.plan") {
		t.Errorf("exported trace missing span name: %s", buf.String())
	}
}

func TestProviderWithMetrics(t *testing.T) {
	provider, err := New(WithMetrics())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := provider.Metrics().(*infratel.MetricsProvider); !ok {
		t.Errorf("Metrics() = %T, want *MetricsProvider", provider.Metrics())
	}
}

func TestProviderTracingUnknownExporter(t *testing.T) {
	_, err := New(WithTracing(ExporterType("carrier-pigeon"), ""))
	if !errors.Is(err, telemetry.ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

func TestProviderTracingSamplers(t *testing.T) {
	for _, rate := range []float64{1.0, 0.0, 0.5, 1.5, -0.5} {
		var buf bytes.Buffer
		provider, err := New(WithStdoutTracing(&buf), WithSampleRate(rate))
		if err != nil {
			t.Fatalf("New(rate=%v) error = %v", rate, err)
		}
		_ = provider.Shutdown(context.Background())
	}
}

func TestProviderShutdownErrors(t *testing.T) {
	provider := &Provider{
		config: DefaultConfig(),
		tracer: NewNoopTracer(),
		shutdownFuncs: []func(context.Context) error{
			func(context.Context) error { return errors.New("error 1") },
			func(context.Context) error { return errors.New("error 2") },
		},
	}

	err := provider.Shutdown(context.Background())
	if !errors.Is(err, telemetry.ErrShutdownFailed) {
		t.Errorf("Shutdown() error = %v, want ErrShutdownFailed", err)
	}
	if !strings.Contains(err.Error(), "error 2") {
		t.Errorf("Shutdown() error = %v, want both causes", err)
	}
}

type label string

func (l label) String() string { return "label:" + string(l) }

func TestOTelAttributes(t *testing.T) {
	attrs := []telemetry.Attribute{
		telemetry.String("string_key", "string_value"),
		telemetry.Strings(telemetry.KeyPlanActions, []string{"Approach", "Cast"}),
		telemetry.Int("int_key", 42),
		telemetry.Int64("int64_key", int64(123)),
		telemetry.Float64("float64_key", 3.14),
		telemetry.Bool("bool_key", true),
		{Key: "stringer", Value: label("x")},
		{Key: "ignored", Value: struct{}{}},
	}

	got := otelAttributes(attrs)
	if len(got) != 7 {
		t.Fatalf("otelAttributes() len = %d, want 7", len(got))
	}
	if got[1].Value.Type() != attribute.STRINGSLICE {
		t.Errorf("%s type = %s, want STRINGSLICE", got[1].Key, got[1].Value.Type())
	}
	if got[6].Value.AsString() != "label:x" {
		t.Errorf("stringer = %q, want label:x", got[6].Value.AsString())
	}
}

func recordingTracer() (*OTelTracer, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewOTelTracerFrom(tp, "goap-test"), rec
}

func attrValue(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSearchTrace_NestsPlanUnderSearch(t *testing.T) {
	tracer, rec := recordingTracer()

	start := worldstate.New().With("hasTarget", worldstate.Bool(true))
	goal := worldstate.New().With("targetDead", worldstate.Bool(true))
	cast := goap.NewAction("Cast", goap.WithCost(5))
	plan := &goap.Plan{Actions: []goap.Action{cast}, Cost: 5, Stats: goap.SearchStats{Iterations: 3}}

	ctx, search := StartSearch(context.Background(), tracer, SearchRequest{
		ID:       "req-1",
		AgentID:  "mage",
		Goal:     "KillTarget",
		Priority: 10,
		Waited:   25 * time.Millisecond,
	})
	_, planned := StartPlan(ctx, tracer, start, goal, []goap.Action{cast})
	planned.Finish(plan, nil)
	search.Finish(plan, nil)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	planSpan, searchSpan := spans[0], spans[1]
	if planSpan.Name() != SpanPlan || searchSpan.Name() != SpanSearch {
		t.Fatalf("span names = %s, %s", planSpan.Name(), searchSpan.Name())
	}
	if planSpan.Parent().SpanID() != searchSpan.SpanContext().SpanID() {
		t.Error("plan span is not a child of the search span")
	}
	if searchSpan.SpanKind() != trace.SpanKindConsumer {
		t.Errorf("search kind = %s, want consumer", searchSpan.SpanKind())
	}
	if v, ok := attrValue(searchSpan, telemetry.KeyQueueWait); !ok || v.AsInt64() != 25 {
		t.Errorf("%s = %v, want 25", telemetry.KeyQueueWait, v.Emit())
	}
	if v, ok := attrValue(planSpan, telemetry.KeyGoalMissing); !ok || v.AsInt64() != 1 {
		t.Errorf("%s = %v, want 1", telemetry.KeyGoalMissing, v.Emit())
	}
	if v, ok := attrValue(planSpan, telemetry.KeyPlanActions); !ok || len(v.AsStringSlice()) != 1 || v.AsStringSlice()[0] != "Cast" {
		t.Errorf("%s = %v, want [Cast]", telemetry.KeyPlanActions, v.Emit())
	}
	if planSpan.Status().Code != codes.Ok {
		t.Errorf("plan status = %s, want Ok", planSpan.Status().Code)
	}
}

func TestSearchTrace_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"no plan", nil, "no_plan"},
		{"error", errors.New("iteration cap"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, rec := recordingTracer()
			_, tr := StartPlan(context.Background(), tracer, worldstate.New(), worldstate.New(), nil)
			tr.Finish(nil, tt.err)

			spans := rec.Ended()
			if len(spans) != 1 {
				t.Fatalf("ended spans = %d, want 1", len(spans))
			}
			if spans[0].Status().Code != codes.Error {
				t.Errorf("status = %s, want Error", spans[0].Status().Code)
			}
			v, ok := attrValue(spans[0], telemetry.KeyResult)
			if tt.result != "" && (!ok || v.AsString() != tt.result) {
				t.Errorf("%s = %v, want %s", telemetry.KeyResult, v.Emit(), tt.result)
			}
			if tt.err != nil && len(spans[0].Events()) == 0 {
				t.Error("error not recorded as a span event")
			}
		})
	}
}

func TestSearchTrace_NilTracer(t *testing.T) {
	ctx := context.Background()
	got, tr := StartSearch(ctx, nil, SearchRequest{ID: "req-1"})
	if got != ctx {
		t.Error("StartSearch without a tracer should return the input context")
	}
	tr.Finish(nil, errors.New("ignored"))
}
