package goap

import "errors"

// Domain errors for planning and execution.
var (
	// ErrNoPlan indicates the search found no action sequence reaching the goal.
	// It is a normal outcome, not a fault.
	ErrNoPlan = errors.New("goap: no plan found")

	// ErrNilGoal indicates a plan was requested without a goal.
	ErrNilGoal = errors.New("goap: nil goal")

	// ErrInvalidAction indicates an action is nil or unnamed.
	ErrInvalidAction = errors.New("goap: invalid action")

	// ErrAgentDisabled indicates the agent has permanently disabled planning
	// after a failed recovery.
	ErrAgentDisabled = errors.New("goap: agent disabled")
)
