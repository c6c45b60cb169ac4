// Package agent provides the domain model for the agent think cycle.
package agent

// State is a phase of an agent's think cycle.
type State string

// Think-cycle states.
const (
	StateIdle      State = "idle"      // No goal, no plan
	StatePlanning  State = "planning"  // Plan requested, waiting for delivery
	StateExecuting State = "executing" // Stepping through a plan
	StateSuspended State = "suspended" // Replanning storm cool-down
	StateDisabled  State = "disabled"  // Recovery failed, planning off for good
)

// IsTerminal returns true if the agent can never plan again.
func (s State) IsTerminal() bool {
	return s == StateDisabled
}

// AllowsPlanning returns true if the agent may issue plan requests.
func (s State) AllowsPlanning() bool {
	return s == StateIdle || s == StatePlanning || s == StateExecuting
}

// IsValid returns true if the state is a recognized state.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StatePlanning, StateExecuting, StateSuspended, StateDisabled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns all states.
func AllStates() []State {
	return []State{
		StateIdle,
		StatePlanning,
		StateExecuting,
		StateSuspended,
		StateDisabled,
	}
}
