package telemetry_test

import (
	"testing"

	"github.com/felixgeelhaar/goap-go/domain/telemetry"
)

func TestWithAttributes(t *testing.T) {
	t.Parallel()

	config := &telemetry.SpanConfig{
		Attributes: []telemetry.Attribute{telemetry.String(telemetry.KeyAgentID, "guard-1")},
	}
	telemetry.WithAttributes(
		telemetry.Int(telemetry.KeyGoalKeys, 2),
		telemetry.Float64(telemetry.KeyPlanCost, 6),
	).ApplySpan(config)

	if len(config.Attributes) != 3 {
		t.Fatalf("Attributes len = %d, want 3", len(config.Attributes))
	}
	if config.Attributes[1].Key != "goap.goal.keys" {
		t.Errorf("Attributes[1].Key = %s, want goap.goal.keys", config.Attributes[1].Key)
	}
	if config.Attributes[2].Value != 6.0 {
		t.Errorf("Attributes[2].Value = %v, want 6", config.Attributes[2].Value)
	}
}

func TestWithSpanKind(t *testing.T) {
	t.Parallel()

	config := &telemetry.SpanConfig{}
	telemetry.WithSpanKind(telemetry.SpanKindProducer).ApplySpan(config)
	if config.Kind != telemetry.SpanKindProducer {
		t.Errorf("Kind = %d, want %d", config.Kind, telemetry.SpanKindProducer)
	}
}

func TestAttributeConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr telemetry.Attribute
		want any
	}{
		{"string", telemetry.String(telemetry.KeyGoal, "KillEnemy"), "KillEnemy"},
		{"int", telemetry.Int(telemetry.KeyPlanLength, 3), 3},
		{"int64", telemetry.Int64(telemetry.KeyPlanIterations, 42), int64(42)},
		{"float64", telemetry.Float64(telemetry.KeyPlanCost, 1.5), 1.5},
		{"bool", telemetry.Bool("goap.found", true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.attr.Value != tt.want {
				t.Errorf("Value = %v (%T), want %v (%T)", tt.attr.Value, tt.attr.Value, tt.want, tt.want)
			}
		})
	}
}
