package agent

import "errors"

// Domain errors for the think cycle.
var (
	// ErrInvalidState indicates the state is not a recognized state.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTransition indicates an attempted state transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCorruptState indicates the agent's memory or sensor set is missing.
	ErrCorruptState = errors.New("agent state corrupted")

	// ErrRecoveryFailed indicates a reset did not restore a usable agent.
	ErrRecoveryFailed = errors.New("agent recovery failed")
)
