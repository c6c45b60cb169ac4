package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/telemetry"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// Span names.
const (
	SpanPlan   = "goap.plan"
	SpanSearch = "goap.coordinator.search"
)

// SearchTrace traces one planner search. The zero value traces nothing, so
// callers never need to check whether a tracer was configured.
type SearchTrace struct {
	span telemetry.Span
}

// StartPlan opens a planner span for a search from start towards goal.
func StartPlan(ctx context.Context, t telemetry.Tracer, start, goal *worldstate.State, actions []goap.Action) (context.Context, SearchTrace) {
	if t == nil {
		return ctx, SearchTrace{}
	}
	ctx, span := t.StartSpan(ctx, SpanPlan,
		telemetry.WithSpanKind(telemetry.SpanKindInternal),
		telemetry.WithAttributes(
			telemetry.Int(telemetry.KeyGoalKeys, goal.Len()),
			telemetry.Int(telemetry.KeyStartKeys, start.Len()),
			telemetry.Int(telemetry.KeyActions, len(actions)),
			telemetry.Int(telemetry.KeyGoalMissing, start.MissingCount(goal, 0)),
		),
	)
	return ctx, SearchTrace{span: span}
}

// SearchRequest describes a queued coordinator request.
type SearchRequest struct {
	ID       string
	AgentID  string
	Goal     string
	Priority float64
	Waited   time.Duration
}

// StartSearch opens a coordinator span around a queued request. The
// planner's own span nests under it.
func StartSearch(ctx context.Context, t telemetry.Tracer, req SearchRequest) (context.Context, SearchTrace) {
	if t == nil {
		return ctx, SearchTrace{}
	}
	ctx, span := t.StartSpan(ctx, SpanSearch,
		telemetry.WithSpanKind(telemetry.SpanKindConsumer),
		telemetry.WithAttributes(
			telemetry.String(telemetry.KeyRequestID, req.ID),
			telemetry.String(telemetry.KeyAgentID, req.AgentID),
			telemetry.String(telemetry.KeyGoal, req.Goal),
			telemetry.Float64(telemetry.KeyPriority, req.Priority),
			telemetry.Int64(telemetry.KeyQueueWait, req.Waited.Milliseconds()),
		),
	)
	return ctx, SearchTrace{span: span}
}

// Finish records the search outcome and ends the span. A nil plan without
// an error is reported as no plan.
func (s SearchTrace) Finish(plan *goap.Plan, err error) {
	if s.span == nil {
		return
	}
	defer s.span.End()

	switch {
	case err != nil:
		s.span.RecordError(err)
		s.span.SetStatus(telemetry.StatusCodeError, err.Error())
	case plan == nil:
		s.span.SetAttributes(telemetry.String(telemetry.KeyResult, "no_plan"))
		s.span.SetStatus(telemetry.StatusCodeError, goap.ErrNoPlan.Error())
	default:
		s.span.SetAttributes(
			telemetry.String(telemetry.KeyResult, "found"),
			telemetry.Int(telemetry.KeyPlanLength, plan.Len()),
			telemetry.Int(telemetry.KeyPlanIterations, plan.Stats.Iterations),
			telemetry.Float64(telemetry.KeyPlanCost, plan.Cost),
			telemetry.Strings(telemetry.KeyPlanActions, plan.Names()),
		)
		s.span.SetStatus(telemetry.StatusCodeOK, "")
	}
}

// OTelTracer adapts an OpenTelemetry tracer to telemetry.Tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer returns a tracer from the global provider.
func NewOTelTracer(name string) *OTelTracer {
	return NewOTelTracerFrom(otel.GetTracerProvider(), name)
}

// NewOTelTracerFrom returns a tracer from tp.
func NewOTelTracerFrom(tp trace.TracerProvider, name string) *OTelTracer {
	return &OTelTracer{tracer: tp.Tracer(name)}
}

// StartSpan implements telemetry.Tracer.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...telemetry.SpanOption) (context.Context, telemetry.Span) {
	var cfg telemetry.SpanConfig
	for _, opt := range opts {
		opt.ApplySpan(&cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(otelAttributes(cfg.Attributes)...),
		trace.WithSpanKind(spanKinds[cfg.Kind]),
	)
	return ctx, otelSpan{span: span}
}

var _ telemetry.Tracer = (*OTelTracer)(nil)

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End() { s.span.End() }

func (s otelSpan) SetAttributes(attrs ...telemetry.Attribute) {
	s.span.SetAttributes(otelAttributes(attrs)...)
}

func (s otelSpan) RecordError(err error) { s.span.RecordError(err) }

func (s otelSpan) SetStatus(code telemetry.StatusCode, description string) {
	s.span.SetStatus(statusCodes[code], description)
}

func (s otelSpan) AddEvent(name string, attrs ...telemetry.Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(otelAttributes(attrs)...))
}

var _ telemetry.Span = otelSpan{}

var spanKinds = map[telemetry.SpanKind]trace.SpanKind{
	telemetry.SpanKindInternal: trace.SpanKindInternal,
	telemetry.SpanKindProducer: trace.SpanKindProducer,
	telemetry.SpanKindConsumer: trace.SpanKindConsumer,
}

var statusCodes = map[telemetry.StatusCode]codes.Code{
	telemetry.StatusCodeOK:    codes.Ok,
	telemetry.StatusCodeError: codes.Error,
}

// otelAttributes converts attributes. Stringers such as world-state values
// are recorded as text; unsupported payloads are skipped.
func otelAttributes(attrs []telemetry.Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(a.Key, v))
		case []string:
			out = append(out, attribute.StringSlice(a.Key, v))
		case int:
			out = append(out, attribute.Int(a.Key, v))
		case int64:
			out = append(out, attribute.Int64(a.Key, v))
		case float64:
			out = append(out, attribute.Float64(a.Key, v))
		case bool:
			out = append(out, attribute.Bool(a.Key, v))
		case fmt.Stringer:
			out = append(out, attribute.String(a.Key, v.String()))
		}
	}
	return out
}
