package application

import "errors"

// Errors returned by the agent management API.
var (
	// ErrNilSensor indicates a nil sensor was added.
	ErrNilSensor = errors.New("application: nil sensor")

	// ErrNotInterruptible indicates the running action refused an interrupt.
	ErrNotInterruptible = errors.New("application: action not interruptible")

	// ErrPlanRejected indicates a plan could not be installed in the
	// current state.
	ErrPlanRejected = errors.New("application: plan rejected")
)
