package statemachine

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

func TestNewContext(t *testing.T) {
	t.Parallel()

	ctx := NewContext("agent-1")

	if ctx.AgentID != "agent-1" {
		t.Errorf("AgentID = %s, want agent-1", ctx.AgentID)
	}
	if ctx.Current != agent.StateIdle {
		t.Errorf("Current = %s, want idle", ctx.Current)
	}
	if ctx.Transitions == nil {
		t.Error("Transitions should be initialized")
	}
}

func TestNewAgentMachine(t *testing.T) {
	t.Parallel()

	machine, err := NewAgentMachine()
	if err != nil {
		t.Fatalf("NewAgentMachine() error = %v", err)
	}
	if machine == nil {
		t.Fatal("NewAgentMachine() returned nil machine")
	}
}

func TestEventForTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    agent.State
		expected string
	}{
		{agent.StatePlanning, "PLAN"},
		{agent.StateExecuting, "EXECUTE"},
		{agent.StateIdle, "IDLE"},
		{agent.StateSuspended, "SUSPEND"},
		{agent.StateDisabled, "DISABLE"},
		{agent.State("custom"), "custom"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			t.Parallel()

			event := EventForTransition(tt.state)
			if string(event) != tt.expected {
				t.Errorf("EventForTransition(%s) = %s, want %s", tt.state, event, tt.expected)
			}
			if tt.state.IsValid() && stateFromEventType(event) != tt.state {
				t.Errorf("stateFromEventType(%s) = %s, want %s", event, stateFromEventType(event), tt.state)
			}
		})
	}
}

func TestInterpreter_ThinkCycle(t *testing.T) {
	t.Parallel()

	interp, err := New("agent-1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if interp.State() != agent.StateIdle {
		t.Fatalf("initial State() = %s, want idle", interp.State())
	}

	steps := []agent.State{
		agent.StatePlanning,
		agent.StateExecuting,
		agent.StatePlanning,
		agent.StateExecuting,
		agent.StateIdle,
	}
	for _, to := range steps {
		if err := interp.Transition(to, "test"); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
		if interp.State() != to {
			t.Fatalf("State() = %s, want %s", interp.State(), to)
		}
		if !interp.Matches(to) {
			t.Errorf("Matches(%s) = false", to)
		}
	}

	history := interp.History()
	if len(history) != len(steps) {
		t.Fatalf("History() len = %d, want %d", len(history), len(steps))
	}
	if history[0].From != agent.StateIdle || history[0].To != agent.StatePlanning {
		t.Errorf("history[0] = %s -> %s, want idle -> planning", history[0].From, history[0].To)
	}
	if history[0].Reason != "test" {
		t.Errorf("history[0].Reason = %q, want test", history[0].Reason)
	}
}

func TestInterpreter_RejectsInvalidTransition(t *testing.T) {
	t.Parallel()

	interp, err := New("agent-1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := interp.Transition(agent.StateSuspended, "storm"); err != nil {
		t.Fatalf("Transition(suspended) error = %v", err)
	}
	err = interp.Transition(agent.StatePlanning, "too early")
	if !errors.Is(err, agent.ErrInvalidTransition) {
		t.Errorf("Transition(planning) from suspended error = %v, want ErrInvalidTransition", err)
	}
	if interp.State() != agent.StateSuspended {
		t.Errorf("State() = %s, want suspended", interp.State())
	}
}

func TestInterpreter_SameStateIsNoop(t *testing.T) {
	t.Parallel()

	interp, err := New("agent-1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := interp.Transition(agent.StateIdle, "again"); err != nil {
		t.Errorf("Transition(idle) from idle error = %v", err)
	}
	if len(interp.History()) != 0 {
		t.Errorf("History() len = %d, want 0", len(interp.History()))
	}
}

func TestInterpreter_Disable(t *testing.T) {
	t.Parallel()

	interp, err := New("agent-1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var seen []Transition
	interp.Context().OnTransition = func(tr Transition) { seen = append(seen, tr) }

	if err := interp.Transition(agent.StateDisabled, "recovery failed"); err != nil {
		t.Fatalf("Transition(disabled) error = %v", err)
	}
	if !interp.IsTerminal() {
		t.Error("IsTerminal() = false after disable")
	}
	if err := interp.Transition(agent.StateIdle, "revive"); err == nil {
		t.Error("Transition() out of disabled should fail")
	}
	if len(seen) != 1 || seen[0].To != agent.StateDisabled {
		t.Errorf("OnTransition saw %v, want one disable", seen)
	}
}

func TestInterpreter_ResumeFrom(t *testing.T) {
	t.Parallel()

	interp, err := New("agent-1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = interp.Transition(agent.StatePlanning, "goal")

	if err := interp.ResumeFrom(agent.StateIdle); err != nil {
		t.Fatalf("ResumeFrom(idle) error = %v", err)
	}
	if interp.State() != agent.StateIdle {
		t.Errorf("State() = %s, want idle", interp.State())
	}
	if err := interp.ResumeFrom(agent.State("bogus")); !errors.Is(err, agent.ErrInvalidState) {
		t.Errorf("ResumeFrom(bogus) error = %v, want ErrInvalidState", err)
	}
}

func TestContext_HistoryBounded(t *testing.T) {
	t.Parallel()

	ctx := NewContext("a")
	for i := 0; i < maxHistory+10; i++ {
		ctx.record(Transition{From: agent.StateIdle, To: agent.StatePlanning})
	}
	if len(ctx.History) != maxHistory {
		t.Errorf("History len = %d, want %d", len(ctx.History), maxHistory)
	}
}
