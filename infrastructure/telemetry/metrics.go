// Package telemetry provides OpenTelemetry metrics for the GOAP runtime.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	domaintel "github.com/felixgeelhaar/goap-go/domain/telemetry"
)

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordPlanRequest(ctx context.Context, agentID, goal string)
	RecordPlanResult(ctx context.Context, agentID, goal string, found bool, length, iterations int, duration time.Duration)
	RecordActionResult(ctx context.Context, agentID, action string, success bool)
	RecordStateTransition(ctx context.Context, agentID, from, to string)
	RecordSuspension(ctx context.Context, agentID string)
	RecordSensorFailure(ctx context.Context, agentID, sensor string)
	AddQueueDepth(ctx context.Context, delta int64)
}

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	planRequests     metric.Int64Counter
	planFailures     metric.Int64Counter
	actionFailures   metric.Int64Counter
	stateTransitions metric.Int64Counter
	suspensions      metric.Int64Counter
	sensorFailures   metric.Int64Counter

	// Histograms
	planningDuration   metric.Float64Histogram
	planningIterations metric.Float64Histogram
	planLength         metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	queueDepth metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/goap-go").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider overrides the global meter provider.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/goap-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

func (mp *MetricsProvider) counter(name, desc, unit string) (metric.Int64Counter, error) {
	return mp.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
}

func (mp *MetricsProvider) histogram(name, desc, unit string) (metric.Float64Histogram, error) {
	return mp.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	if mp.planRequests, err = mp.counter("goap.planning.requests", "Number of plan requests", "{request}"); err != nil {
		return err
	}
	if mp.planFailures, err = mp.counter("goap.planning.failures", "Number of searches that found no plan", "{search}"); err != nil {
		return err
	}
	if mp.actionFailures, err = mp.counter("goap.action.failures", "Number of failed action runs", "{run}"); err != nil {
		return err
	}
	if mp.stateTransitions, err = mp.counter("goap.agent.transitions", "Number of agent state transitions", "{transition}"); err != nil {
		return err
	}
	if mp.suspensions, err = mp.counter("goap.agent.suspensions", "Number of replanning storm suspensions", "{suspension}"); err != nil {
		return err
	}
	if mp.sensorFailures, err = mp.counter("goap.sensor.failures", "Number of failed sensor updates", "{update}"); err != nil {
		return err
	}

	if mp.planningDuration, err = mp.histogram("goap.planning.duration", "Duration of searches", "ms"); err != nil {
		return err
	}
	if mp.planningIterations, err = mp.histogram("goap.planning.iterations", "Node expansions per search", "{node}"); err != nil {
		return err
	}
	if mp.planLength, err = mp.histogram("goap.plan.length", "Actions per plan found", "{action}"); err != nil {
		return err
	}

	mp.queueDepth, err = mp.meter.Int64UpDownCounter(
		"goap.queue.depth",
		metric.WithDescription("Plan requests waiting for a worker"),
		metric.WithUnit("{request}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordPlanRequest records a plan request.
func (mp *MetricsProvider) RecordPlanRequest(ctx context.Context, agentID, goal string) {
	mp.planRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String(domaintel.KeyAgentID, agentID),
		attribute.String(domaintel.KeyGoal, goal),
	))
}

// RecordPlanResult records the outcome of a search.
func (mp *MetricsProvider) RecordPlanResult(ctx context.Context, agentID, goal string, found bool, length, iterations int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(domaintel.KeyAgentID, agentID),
		attribute.String(domaintel.KeyGoal, goal),
		attribute.Bool("goap.plan.found", found),
	)

	mp.planningDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	mp.planningIterations.Record(ctx, float64(iterations), attrs)
	if found {
		mp.planLength.Record(ctx, float64(length), attrs)
		return
	}
	mp.planFailures.Add(ctx, 1, attrs)
}

// RecordActionResult records a finished action run. Only failures are counted.
func (mp *MetricsProvider) RecordActionResult(ctx context.Context, agentID, action string, success bool) {
	if success {
		return
	}
	mp.actionFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(domaintel.KeyAgentID, agentID),
		attribute.String(domaintel.KeyAction, action),
	))
}

// RecordStateTransition records an agent state transition.
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, agentID, from, to string) {
	mp.stateTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(domaintel.KeyAgentID, agentID),
		attribute.String("goap.state.from", from),
		attribute.String("goap.state.to", to),
	))
}

// RecordSuspension records a replanning storm suspension.
func (mp *MetricsProvider) RecordSuspension(ctx context.Context, agentID string) {
	mp.suspensions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(domaintel.KeyAgentID, agentID),
	))
}

// RecordSensorFailure records a failed or skipped sensor update.
func (mp *MetricsProvider) RecordSensorFailure(ctx context.Context, agentID, sensor string) {
	mp.sensorFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(domaintel.KeyAgentID, agentID),
		attribute.String(domaintel.KeySensor, sensor),
	))
}

// AddQueueDepth adjusts the queue depth gauge.
func (mp *MetricsProvider) AddQueueDepth(ctx context.Context, delta int64) {
	mp.queueDepth.Add(ctx, delta)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordPlanRequest is a no-op.
func (NoopMetricsProvider) RecordPlanRequest(context.Context, string, string) {}

// RecordPlanResult is a no-op.
func (NoopMetricsProvider) RecordPlanResult(context.Context, string, string, bool, int, int, time.Duration) {
}

// RecordActionResult is a no-op.
func (NoopMetricsProvider) RecordActionResult(context.Context, string, string, bool) {}

// RecordStateTransition is a no-op.
func (NoopMetricsProvider) RecordStateTransition(context.Context, string, string, string) {}

// RecordSuspension is a no-op.
func (NoopMetricsProvider) RecordSuspension(context.Context, string) {}

// RecordSensorFailure is a no-op.
func (NoopMetricsProvider) RecordSensorFailure(context.Context, string, string) {}

// AddQueueDepth is a no-op.
func (NoopMetricsProvider) AddQueueDepth(context.Context, int64) {}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
