package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// guardCanTransition checks the transition against the context's rules.
// statekit passes guards the context by value, which for *Context is the
// pointer itself.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Transitions == nil {
		return false
	}

	var toState agent.State
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toState = payload.ToState
	} else {
		toState = stateFromEventType(event.Type)
	}

	return ctx.Transitions.CanTransition(ctx.Current, toState)
}

// stateFromEventType derives the target state from an event type.
func stateFromEventType(eventType statekit.EventType) agent.State {
	switch eventType {
	case eventPlan:
		return agent.StatePlanning
	case eventExecute:
		return agent.StateExecuting
	case eventIdle:
		return agent.StateIdle
	case eventSuspend:
		return agent.StateSuspended
	case eventDisable:
		return agent.StateDisabled
	default:
		return agent.State(eventType)
	}
}
