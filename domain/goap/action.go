// Package goap defines the contracts the planner and the agent runtime are
// built on: actions, goals, sensors and plans.
package goap

import (
	"sync/atomic"

	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// MinCost is the smallest cost an action may contribute to a plan.
// Zero-cost actions would allow unbounded cycles in the search.
const MinCost = 0.01

// DefaultFailurePenalty is added to an action's cost for every recorded failure.
const DefaultFailurePenalty = 1.0

// Result is the outcome of advancing an action by one tick.
type Result int

// Step results.
const (
	Running Result = iota
	Success
	Failure
)

// IsTerminal returns true when the action has finished this tick.
func (r Result) IsTerminal() bool {
	return r == Success || r == Failure
}

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case Running:
		return "running"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Agent is the view of an agent handed to actions, goals and sensors.
type Agent interface {
	// ID returns the agent identifier.
	ID() string

	// Memory returns the agent's live world state.
	Memory() *worldstate.State
}

// Action is a unit of behavior with preconditions, effects and a cost.
//
// Preconditions, Effects and Cost may be called from planner workers while
// the owning agent is ticking, so they must not mutate shared state.
type Action interface {
	// Name identifies the action in plans and logs.
	Name() string

	// Preconditions must be met by a search node for the action to apply.
	Preconditions(agent Agent) *worldstate.State

	// Effects are written over the predecessor state to form the successor.
	Effects(agent Agent) *worldstate.State

	// Cost returns the cost of applying the action in state.
	// It must be deterministic for a fixed state within one search.
	Cost(agent Agent, state *worldstate.State) float64

	// CheckPreconditions is the authoritative execution-time check against
	// the live world state.
	CheckPreconditions(agent Agent, state *worldstate.State) bool

	// Run advances the action by one tick.
	Run(agent Agent) Result

	// Interruptible reports whether the action may be cancelled without
	// counting as a failure.
	Interruptible() bool

	// Reset clears per-execution state before the action starts.
	Reset()

	// RecordFailure increments the failure counter.
	RecordFailure()

	// Failures returns the number of recorded failures.
	Failures() int
}

// CostFunc computes a dynamic action cost.
type CostFunc func(agent Agent, state *worldstate.State) float64

// CheckFunc validates preconditions at execution time.
type CheckFunc func(agent Agent, state *worldstate.State) bool

// RunFunc advances an action by one tick.
type RunFunc func(agent Agent) Result

// BaseAction is a configurable Action implementation. Content packages either
// use it directly or embed it and override Run.
type BaseAction struct {
	name          string
	preconditions *worldstate.State
	effects       *worldstate.State
	cost          float64
	costFn        CostFunc
	penalty       float64
	interruptible bool
	check         CheckFunc
	run           RunFunc
	onReset       func()
	failures      atomic.Int64
}

// ActionOption configures a BaseAction.
type ActionOption func(*BaseAction)

// WithPreconditions sets the static preconditions.
func WithPreconditions(s *worldstate.State) ActionOption {
	return func(a *BaseAction) {
		a.preconditions = s
	}
}

// WithEffects sets the static effects.
func WithEffects(s *worldstate.State) ActionOption {
	return func(a *BaseAction) {
		a.effects = s
	}
}

// WithCost sets a constant base cost.
func WithCost(c float64) ActionOption {
	return func(a *BaseAction) {
		a.cost = c
	}
}

// WithCostFunc sets a dynamic base cost.
func WithCostFunc(fn CostFunc) ActionOption {
	return func(a *BaseAction) {
		a.costFn = fn
	}
}

// WithFailurePenalty sets the cost added per recorded failure.
func WithFailurePenalty(p float64) ActionOption {
	return func(a *BaseAction) {
		a.penalty = p
	}
}

// WithCheck sets the execution-time precondition check.
func WithCheck(fn CheckFunc) ActionOption {
	return func(a *BaseAction) {
		a.check = fn
	}
}

// WithRun sets the step function.
func WithRun(fn RunFunc) ActionOption {
	return func(a *BaseAction) {
		a.run = fn
	}
}

// WithReset sets a hook called when the action is reset.
func WithReset(fn func()) ActionOption {
	return func(a *BaseAction) {
		a.onReset = fn
	}
}

// Interruptible marks the action as interruptible.
func Interruptible() ActionOption {
	return func(a *BaseAction) {
		a.interruptible = true
	}
}

// NewAction creates a BaseAction. Without WithRun the action succeeds on its
// first tick.
func NewAction(name string, opts ...ActionOption) *BaseAction {
	a := &BaseAction{
		name:          name,
		preconditions: worldstate.New(),
		effects:       worldstate.New(),
		cost:          1,
		penalty:       DefaultFailurePenalty,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the action name.
func (a *BaseAction) Name() string { return a.name }

// Preconditions returns the static preconditions.
func (a *BaseAction) Preconditions(Agent) *worldstate.State { return a.preconditions }

// Effects returns the static effects.
func (a *BaseAction) Effects(Agent) *worldstate.State { return a.effects }

// Cost returns the base cost plus the failure penalty, never below MinCost.
func (a *BaseAction) Cost(agent Agent, state *worldstate.State) float64 {
	base := a.cost
	if a.costFn != nil {
		base = a.costFn(agent, state)
	}
	c := base + float64(a.failures.Load())*a.penalty
	if c < MinCost {
		return MinCost
	}
	return c
}

// CheckPreconditions runs the execution-time check. Without a custom check
// the static preconditions must be met by state.
func (a *BaseAction) CheckPreconditions(agent Agent, state *worldstate.State) bool {
	if a.check != nil {
		return a.check(agent, state)
	}
	return state.MeetsGoal(a.preconditions)
}

// Run advances the action by one tick.
func (a *BaseAction) Run(agent Agent) Result {
	if a.run == nil {
		return Success
	}
	return a.run(agent)
}

// Interruptible reports whether the action may be cancelled.
func (a *BaseAction) Interruptible() bool { return a.interruptible }

// Reset clears per-execution state.
func (a *BaseAction) Reset() {
	if a.onReset != nil {
		a.onReset()
	}
}

// RecordFailure increments the failure counter.
func (a *BaseAction) RecordFailure() { a.failures.Add(1) }

// Failures returns the number of recorded failures.
func (a *BaseAction) Failures() int { return int(a.failures.Load()) }

// ResetFailures clears the failure counter.
func (a *BaseAction) ResetFailures() { a.failures.Store(0) }
