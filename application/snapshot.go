package application

import (
	"time"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// Snapshot is a point-in-time view of an agent for inspection.
type Snapshot struct {
	ID             string            `json:"id"`
	State          agent.State       `json:"state"`
	Enabled        bool              `json:"enabled"`
	Goal           string            `json:"goal,omitempty"`
	Action         string            `json:"action,omitempty"`
	Plan           []string          `json:"plan,omitempty"`
	PlanCost       float64           `json:"plan_cost,omitempty"`
	Ticks          uint64            `json:"ticks"`
	PlanRequests   uint64            `json:"plan_requests"`
	Suspensions    int               `json:"suspensions"`
	SuspendedUntil time.Time         `json:"suspended_until,omitzero"`
	Memory         map[string]any    `json:"memory"`
	Goals          []GoalSnapshot    `json:"goals"`
	Actions        []ActionSnapshot  `json:"actions"`
	Sensors        []SensorSnapshot  `json:"sensors"`
	Transitions    []TransitionEntry `json:"transitions,omitempty"`
	Err            string            `json:"error,omitempty"`
}

// GoalSnapshot describes one registered goal.
type GoalSnapshot struct {
	Name      string  `json:"name"`
	Priority  float64 `json:"priority"`
	Satisfied bool    `json:"satisfied"`
}

// ActionSnapshot describes one registered action.
type ActionSnapshot struct {
	Name          string `json:"name"`
	Failures      int    `json:"failures"`
	Interruptible bool   `json:"interruptible"`
}

// SensorSnapshot describes one registered sensor and its breaker state.
type SensorSnapshot struct {
	Name    string `json:"name"`
	Breaker string `json:"breaker"`
}

// TransitionEntry is one recorded state change.
type TransitionEntry struct {
	From   agent.State `json:"from"`
	To     agent.State `json:"to"`
	Reason string      `json:"reason,omitempty"`
	At     time.Time   `json:"at"`
}

// Snapshot captures the agent's current state.
func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		ID:           a.id,
		State:        a.interp.State(),
		Enabled:      !a.disabled.Load(),
		Goal:         goalName(a.currentGoal),
		Ticks:        a.ticks,
		PlanRequests: a.requests,
		Suspensions:  a.throttle.Suspensions(),
	}
	if a.throttle.Suspended() {
		s.SuspendedUntil = a.throttle.SuspendedUntil()
	}
	if a.currentAction != nil {
		s.Action = a.currentAction.Name()
	}
	if a.plan != nil {
		s.Plan = a.plan.Names()
		s.PlanCost = a.plan.Cost
	}
	if a.lastErr != nil {
		s.Err = a.lastErr.Error()
	}

	memory := a.memory.Load()
	if memory != nil {
		s.Memory = memory.Map()
	}

	for _, g := range a.Goals() {
		gs := GoalSnapshot{Name: g.Name()}
		if memory != nil {
			gs.Priority = g.Priority(memory)
			gs.Satisfied = g.IsSatisfied(memory)
		}
		s.Goals = append(s.Goals, gs)
	}
	for _, act := range a.Actions() {
		s.Actions = append(s.Actions, ActionSnapshot{
			Name:          act.Name(),
			Failures:      act.Failures(),
			Interruptible: act.Interruptible(),
		})
	}
	for _, sensor := range a.Sensors() {
		s.Sensors = append(s.Sensors, SensorSnapshot{
			Name:    sensor.Name(),
			Breaker: a.guard.State(sensor.Name()),
		})
	}
	for _, tr := range a.interp.History() {
		s.Transitions = append(s.Transitions, TransitionEntry{
			From:   tr.From,
			To:     tr.To,
			Reason: tr.Reason,
			At:     tr.At,
		})
	}
	return s
}
