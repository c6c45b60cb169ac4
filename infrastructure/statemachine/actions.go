package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// logStateEntry syncs the context with the entered state.
// statekit hands actions a pointer to the context, so *Context arrives as
// **Context.
func logStateEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	var newState agent.State
	if payload, ok := event.Payload.(TransitionPayload); ok {
		newState = payload.ToState
	} else {
		newState = stateFromEventType(event.Type)
	}

	if newState != "" {
		(*ctx).Current = newState
	}
}

// recordTransition appends the transition to the context history.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx
	fromState := c.Current
	var (
		toState agent.State
		reason  string
	)
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toState = payload.ToState
		reason = payload.Reason
		if payload.FromState != "" {
			fromState = payload.FromState
		}
	} else {
		toState = stateFromEventType(event.Type)
	}

	c.record(Transition{
		From:   fromState,
		To:     toState,
		Reason: reason,
		At:     time.Now(),
	})
	c.Current = toState
}
