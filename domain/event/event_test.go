package event_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/agent"
	"github.com/felixgeelhaar/goap-go/domain/event"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	t.Run("creates event with valid payload", func(t *testing.T) {
		t.Parallel()

		payload := event.PlanFoundPayload{
			Goal:       "KillEnemy",
			Actions:    []string{"CastSpell"},
			Cost:       2,
			Iterations: 3,
		}

		at := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)
		e, err := event.NewEvent("guard-1", event.TypePlanFound, at, payload)
		if err != nil {
			t.Fatalf("NewEvent() error = %v", err)
		}

		if e.AgentID != "guard-1" {
			t.Errorf("NewEvent() AgentID = %s, want guard-1", e.AgentID)
		}
		if e.Type != event.TypePlanFound {
			t.Errorf("NewEvent() Type = %s, want plan.found", e.Type)
		}
		if !e.Timestamp.Equal(at) {
			t.Errorf("NewEvent() Timestamp = %v, want %v", e.Timestamp, at)
		}
		if e.Version != event.SchemaVersion {
			t.Errorf("NewEvent() Version = %d, want %d", e.Version, event.SchemaVersion)
		}
		if e.Sequence != 0 {
			t.Errorf("NewEvent() Sequence = %d, want 0 until appended", e.Sequence)
		}

		var decoded event.PlanFoundPayload
		if err := e.Decode(&decoded); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if decoded.Goal != "KillEnemy" || len(decoded.Actions) != 1 || decoded.Actions[0] != "CastSpell" {
			t.Errorf("Decode() = %+v", decoded)
		}
	})

	t.Run("rejects unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, err := event.NewEvent("guard-1", event.TypeAgentStarted, time.Now(), make(chan int))
		if err == nil {
			t.Error("NewEvent() expected error for channel payload")
		}
	})
}

func TestEvent_StateTransitionPayload(t *testing.T) {
	t.Parallel()

	e, err := event.NewEvent("guard-1", event.TypeStateTransitioned, time.Now(), event.StateTransitionedPayload{
		From:   agent.StateIdle,
		To:     agent.StatePlanning,
		Reason: "goal selected",
	})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	var p event.StateTransitionedPayload
	if err := e.Decode(&p); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.From != agent.StateIdle || p.To != agent.StatePlanning {
		t.Errorf("payload = %s -> %s, want idle -> planning", p.From, p.To)
	}
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event event.Event
		valid bool
	}{
		{"complete", event.Event{AgentID: "a", Type: event.TypeAgentStarted}, true},
		{"missing agent", event.Event{Type: event.TypeAgentStarted}, false},
		{"missing type", event.Event{AgentID: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.event.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.valid && !errors.Is(err, event.ErrInvalidEvent) {
				t.Errorf("Validate() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}
