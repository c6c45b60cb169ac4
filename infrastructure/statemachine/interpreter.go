package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	FromState agent.State
	ToState   agent.State
	Reason    string
}

// Interpreter wraps the statekit interpreter with think-cycle helpers.
// It is not safe for concurrent use; the owning agent serializes access.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the think-cycle machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// New builds the machine and a started interpreter for agentID.
func New(agentID string) (*Interpreter, error) {
	machine, err := NewAgentMachine()
	if err != nil {
		return nil, fmt.Errorf("build agent machine: %w", err)
	}
	i := NewInterpreter(machine, NewContext(agentID))
	i.Start()
	return i, nil
}

// Start enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Current = StateFromMachine(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current state.
func (i *Interpreter) State() agent.State {
	return StateFromMachine(i.interp.State().Value)
}

// Transition moves the machine to the target state. Transitioning to the
// current state is a no-op.
func (i *Interpreter) Transition(to agent.State, reason string) error {
	from := i.State()
	if from == to {
		return nil
	}
	if !i.CanTransition(to) {
		return fmt.Errorf("%w: %s to %s", agent.ErrInvalidTransition, from, to)
	}

	i.interp.Send(statekit.Event{
		Type: EventForTransition(to),
		Payload: TransitionPayload{
			FromState: from,
			ToState:   to,
			Reason:    reason,
		},
	})

	if got := i.State(); got != to {
		return fmt.Errorf("%w: %s to %s rejected, still %s", agent.ErrInvalidTransition, from, to, got)
	}
	i.ctx.Current = to
	return nil
}

// CanTransition checks if a transition to the target state is permitted.
func (i *Interpreter) CanTransition(to agent.State) bool {
	return i.ctx.Transitions.CanTransition(i.State(), to)
}

// IsTerminal returns true once the agent is disabled.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks if the current state matches state.
func (i *Interpreter) Matches(state agent.State) bool {
	return i.interp.Matches(statekit.StateID(state))
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// History returns a copy of the recorded transitions.
func (i *Interpreter) History() []Transition {
	return append([]Transition(nil), i.ctx.History...)
}

// ResumeFrom forces the interpreter into state without a transition.
// Recovery uses it to reset an agent to idle from wherever it was.
func (i *Interpreter) ResumeFrom(state agent.State) error {
	if !state.IsValid() {
		return fmt.Errorf("%w: %s", agent.ErrInvalidState, state)
	}

	snapshot := statekit.Snapshot[*Context]{
		MachineID:    machineID,
		CurrentState: statekit.StateID(state),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}
	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}

	i.ctx.record(Transition{
		From:   i.ctx.Current,
		To:     state,
		Reason: "restored",
		At:     time.Now(),
	})
	i.ctx.Current = state
	return nil
}
