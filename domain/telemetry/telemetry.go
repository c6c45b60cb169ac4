// Package telemetry defines the tracing contract used by the planner,
// coordinator and agents. Implementations live in
// infrastructure/observability.
package telemetry

import (
	"context"
)

// Tracer creates spans for distributed tracing.
type Tracer interface {
	// StartSpan starts a new span and returns a new context containing the span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span represents a unit of work in a trace.
type Span interface {
	// End completes the span.
	End()

	// SetAttributes sets attributes on the span.
	SetAttributes(attrs ...Attribute)

	// RecordError records an error on the span.
	RecordError(err error)

	// SetStatus sets the span status.
	SetStatus(code StatusCode, description string)

	// AddEvent adds an event to the span.
	AddEvent(name string, attrs ...Attribute)
}

// SpanOption configures a span.
type SpanOption interface {
	ApplySpan(*SpanConfig)
}

// SpanConfig holds span configuration.
type SpanConfig struct {
	Attributes []Attribute
	Kind       SpanKind
}

// WithAttributes sets span attributes at creation.
func WithAttributes(attrs ...Attribute) SpanOption {
	return SpanOptionFunc(func(c *SpanConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	})
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return SpanOptionFunc(func(c *SpanConfig) {
		c.Kind = kind
	})
}

// SpanOptionFunc is a function that implements SpanOption.
type SpanOptionFunc func(*SpanConfig)

// ApplySpan implements SpanOption.
func (f SpanOptionFunc) ApplySpan(c *SpanConfig) { f(c) }

// SpanKind represents the role of a span.
type SpanKind int

const (
	SpanKindUnspecified SpanKind = iota
	SpanKindInternal
	SpanKindProducer
	SpanKindConsumer
)

// StatusCode represents the status of a span.
type StatusCode int

const (
	StatusCodeUnset StatusCode = iota
	StatusCodeOK
	StatusCodeError
)

// Attribute keys shared by spans and metrics.
const (
	KeyAgentID        = "goap.agent.id"
	KeyGoal           = "goap.goal"
	KeyAction         = "goap.action"
	KeySensor         = "goap.sensor"
	KeyState          = "goap.agent.state"
	KeyResult         = "goap.result"
	KeyRequestID      = "goap.request.id"
	KeyGoalKeys       = "goap.goal.keys"
	KeyGoalMissing    = "goap.goal.missing"
	KeyStartKeys      = "goap.start.keys"
	KeyPriority       = "goap.goal.priority"
	KeyQueueWait      = "goap.request.wait_ms"
	KeyActions        = "goap.actions"
	KeyPlanLength     = "goap.plan.length"
	KeyPlanIterations = "goap.plan.iterations"
	KeyPlanCost       = "goap.plan.cost"
	KeyPlanActions    = "goap.plan.actions"
)

// Attribute represents a key-value pair.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Strings creates a string slice attribute.
func Strings(key string, values []string) Attribute {
	return Attribute{Key: key, Value: values}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}
