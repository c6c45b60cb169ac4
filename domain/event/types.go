package event

import (
	"time"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// Type classifies journal events.
type Type string

// Event types for the agent runtime.
const (
	// Agent lifecycle
	TypeAgentStarted   Type = "agent.started"
	TypeAgentSuspended Type = "agent.suspended"
	TypeAgentResumed   Type = "agent.resumed"
	TypeAgentRecovered Type = "agent.recovered"
	TypeAgentDisabled  Type = "agent.disabled"

	// State machine
	TypeStateTransitioned Type = "state.transitioned"

	// Planning
	TypeGoalSelected  Type = "goal.selected"
	TypePlanRequested Type = "plan.requested"
	TypePlanFound     Type = "plan.found"
	TypePlanFailed    Type = "plan.failed"
	TypePlanCompleted Type = "plan.completed"

	// Execution
	TypeActionStarted     Type = "action.started"
	TypeActionSucceeded   Type = "action.succeeded"
	TypeActionFailed      Type = "action.failed"
	TypeActionInterrupted Type = "action.interrupted"
)

// AgentStartedPayload is the payload for TypeAgentStarted.
type AgentStartedPayload struct {
	Goals   []string `json:"goals"`
	Actions []string `json:"actions"`
	Sensors []string `json:"sensors"`
}

// StateTransitionedPayload is the payload for TypeStateTransitioned.
type StateTransitionedPayload struct {
	From   agent.State `json:"from"`
	To     agent.State `json:"to"`
	Reason string      `json:"reason,omitempty"`
}

// GoalSelectedPayload is the payload for TypeGoalSelected.
type GoalSelectedPayload struct {
	Goal     string  `json:"goal"`
	Priority float64 `json:"priority"`
}

// PlanRequestedPayload is the payload for TypePlanRequested.
type PlanRequestedPayload struct {
	Goal       string `json:"goal"`
	Generation uint64 `json:"generation"`
}

// PlanFoundPayload is the payload for TypePlanFound.
type PlanFoundPayload struct {
	Goal       string   `json:"goal"`
	Actions    []string `json:"actions"`
	Cost       float64  `json:"cost"`
	Iterations int      `json:"iterations"`
}

// PlanFailedPayload is the payload for TypePlanFailed.
type PlanFailedPayload struct {
	Goal   string `json:"goal"`
	Reason string `json:"reason"`
}

// PlanCompletedPayload is the payload for TypePlanCompleted.
type PlanCompletedPayload struct {
	Goal string `json:"goal"`
}

// ActionPayload is the payload for action events.
type ActionPayload struct {
	Action   string `json:"action"`
	Reason   string `json:"reason,omitempty"`
	Failures int    `json:"failures,omitempty"`
}

// AgentSuspendedPayload is the payload for TypeAgentSuspended.
type AgentSuspendedPayload struct {
	Reason string    `json:"reason"`
	Until  time.Time `json:"until"`
}

// AgentRecoveredPayload is the payload for TypeAgentRecovered.
type AgentRecoveredPayload struct {
	Reason string `json:"reason"`
}

// AgentDisabledPayload is the payload for TypeAgentDisabled.
type AgentDisabledPayload struct {
	Reason string `json:"reason"`
}
