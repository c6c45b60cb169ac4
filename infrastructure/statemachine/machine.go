// Package statemachine provides the statekit integration for the agent
// think cycle.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// maxHistory bounds the transition history kept on a Context.
const maxHistory = 32

// Transition is one recorded state change.
type Transition struct {
	From   agent.State
	To     agent.State
	Reason string
	At     time.Time
}

// Context carries agent state through the state machine.
type Context struct {
	AgentID     string
	Current     agent.State
	Transitions *agent.Transitions
	History     []Transition

	// OnTransition is called after every recorded transition.
	OnTransition func(t Transition)
}

// NewContext creates a new machine context.
func NewContext(agentID string) *Context {
	return &Context{
		AgentID:     agentID,
		Current:     agent.StateIdle,
		Transitions: agent.DefaultTransitions(),
	}
}

// record appends t to the bounded history.
func (c *Context) record(t Transition) {
	c.History = append(c.History, t)
	if len(c.History) > maxHistory {
		c.History = append([]Transition(nil), c.History[len(c.History)-maxHistory:]...)
	}
	if c.OnTransition != nil {
		c.OnTransition(t)
	}
}

// State IDs as StateID type for statekit.
const (
	stateIdle      statekit.StateID = statekit.StateID(agent.StateIdle)
	statePlanning  statekit.StateID = statekit.StateID(agent.StatePlanning)
	stateExecuting statekit.StateID = statekit.StateID(agent.StateExecuting)
	stateSuspended statekit.StateID = statekit.StateID(agent.StateSuspended)
	stateDisabled  statekit.StateID = statekit.StateID(agent.StateDisabled)
)

// Event types.
const (
	eventPlan    = "PLAN"
	eventExecute = "EXECUTE"
	eventIdle    = "IDLE"
	eventSuspend = "SUSPEND"
	eventDisable = "DISABLE"
)

// machineID names the think-cycle machine.
const machineID = "goap-agent"

// NewAgentMachine creates the think-cycle statechart.
func NewAgentMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context](machineID).
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("logEntry", logStateEntry).
		WithAction("recordTransition", recordTransition).
		WithGuard("canTransition", guardCanTransition).
		State(stateIdle).
			OnEntry("logEntry").
			On(eventPlan).Target(statePlanning).Guard("canTransition").Do("recordTransition").
			On(eventExecute).Target(stateExecuting).Guard("canTransition").Do("recordTransition").
			On(eventSuspend).Target(stateSuspended).Guard("canTransition").Do("recordTransition").
			On(eventDisable).Target(stateDisabled).Do("recordTransition").
			Done().
		State(statePlanning).
			OnEntry("logEntry").
			On(eventExecute).Target(stateExecuting).Guard("canTransition").Do("recordTransition").
			On(eventIdle).Target(stateIdle).Guard("canTransition").Do("recordTransition").
			On(eventSuspend).Target(stateSuspended).Guard("canTransition").Do("recordTransition").
			On(eventDisable).Target(stateDisabled).Do("recordTransition").
			Done().
		State(stateExecuting).
			OnEntry("logEntry").
			On(eventIdle).Target(stateIdle).Guard("canTransition").Do("recordTransition").
			On(eventPlan).Target(statePlanning).Guard("canTransition").Do("recordTransition").
			On(eventSuspend).Target(stateSuspended).Guard("canTransition").Do("recordTransition").
			On(eventDisable).Target(stateDisabled).Do("recordTransition").
			Done().
		State(stateSuspended).
			OnEntry("logEntry").
			On(eventIdle).Target(stateIdle).Guard("canTransition").Do("recordTransition").
			On(eventDisable).Target(stateDisabled).Do("recordTransition").
			Done().
		State(stateDisabled).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}

// EventForTransition returns the event type that moves the machine to.
func EventForTransition(to agent.State) statekit.EventType {
	switch to {
	case agent.StatePlanning:
		return eventPlan
	case agent.StateExecuting:
		return eventExecute
	case agent.StateIdle:
		return eventIdle
	case agent.StateSuspended:
		return eventSuspend
	case agent.StateDisabled:
		return eventDisable
	default:
		return statekit.EventType(to)
	}
}

// StateFromMachine converts the machine state ID to domain State.
func StateFromMachine(stateID statekit.StateID) agent.State {
	return agent.State(stateID)
}
