package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/goap-go/domain/agent"
	"github.com/felixgeelhaar/goap-go/domain/event"
	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
)

// validate reports corruption that the think cycle cannot work around.
func (a *Agent) validate() error {
	if a.memory.Load() == nil {
		return fmt.Errorf("%w: memory missing", agent.ErrCorruptState)
	}
	if a.requireSensors && len(a.Sensors()) == 0 {
		return fmt.Errorf("%w: no sensors registered", agent.ErrCorruptState)
	}
	return nil
}

// recover resets memory and plan state, repopulates memory from the
// sensors and validates again, retrying with backoff. When every attempt
// fails the agent is disabled.
func (a *Agent) recover(ctx context.Context, cause error) error {
	logging.Warn().
		Add(logging.AgentID(a.id)).
		Add(logging.State(a.interp.State())).
		Add(logging.ErrorField(cause)).
		Msg("agent corrupted, recovering")

	err := a.recoverer.Do(ctx, func(ctx context.Context) error {
		a.memory.Store(worldstate.New())
		a.abandon()
		for _, s := range a.Sensors() {
			_ = a.guard.Update(ctx, s, a)
		}
		return a.validate()
	})
	if err != nil {
		a.disable(ctx, errors.Join(goap.ErrAgentDisabled, agent.ErrRecoveryFailed, cause))
		return a.lastErr
	}

	if err := a.interp.ResumeFrom(agent.StateIdle); err != nil {
		a.disable(ctx, errors.Join(goap.ErrAgentDisabled, agent.ErrRecoveryFailed, err))
		return a.lastErr
	}
	a.throttle.Reset()
	a.record(ctx, event.TypeAgentRecovered, event.AgentRecoveredPayload{Reason: cause.Error()})
	logging.Info().
		Add(logging.AgentID(a.id)).
		Msg("agent recovered")
	return nil
}

// disable stops planning for good. The fallback keeps ticking.
func (a *Agent) disable(ctx context.Context, err error) {
	a.lastErr = err
	a.abandon()
	a.disabled.Store(true)
	a.transition(ctx, agent.StateDisabled, "recovery failed")
	a.record(ctx, event.TypeAgentDisabled, event.AgentDisabledPayload{Reason: err.Error()})
	logging.Error().
		Add(logging.AgentID(a.id)).
		Add(logging.ErrorField(err)).
		Msg("agent disabled")
}

// Corrupt drops the agent's memory so the next tick runs recovery. It
// exists for fault injection in simulations.
func (a *Agent) Corrupt() {
	a.memory.Store(nil)
}
