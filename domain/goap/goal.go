package goap

import (
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// Goal is a desired partial world state with a dynamic priority.
type Goal interface {
	// Name identifies the goal.
	Name() string

	// GoalState returns the partial target state.
	GoalState() *worldstate.State

	// Priority is recomputed every tick. Higher wins; 0 means not applicable.
	Priority(current *worldstate.State) float64

	// IsSatisfied reports whether current already fulfils the goal.
	IsSatisfied(current *worldstate.State) bool
}

// PriorityFunc computes a goal priority from the current state.
type PriorityFunc func(current *worldstate.State) float64

// BaseGoal is a configurable Goal implementation.
type BaseGoal struct {
	name      string
	state     *worldstate.State
	priority  PriorityFunc
	satisfied func(current *worldstate.State) bool
}

// GoalOption configures a BaseGoal.
type GoalOption func(*BaseGoal)

// WithPriority sets a constant priority.
func WithPriority(p float64) GoalOption {
	return func(g *BaseGoal) {
		g.priority = func(*worldstate.State) float64 { return p }
	}
}

// WithPriorityFunc sets a dynamic priority.
func WithPriorityFunc(fn PriorityFunc) GoalOption {
	return func(g *BaseGoal) {
		g.priority = fn
	}
}

// WithSatisfiedFunc overrides the satisfaction check, typically with a
// cheaper test against a single flag.
func WithSatisfiedFunc(fn func(current *worldstate.State) bool) GoalOption {
	return func(g *BaseGoal) {
		g.satisfied = fn
	}
}

// NewGoal creates a goal targeting state with priority 1 unless configured.
func NewGoal(name string, state *worldstate.State, opts ...GoalOption) *BaseGoal {
	g := &BaseGoal{
		name:  name,
		state: state,
	}
	if g.state == nil {
		g.state = worldstate.New()
	}
	WithPriority(1)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the goal name.
func (g *BaseGoal) Name() string { return g.name }

// GoalState returns the target state.
func (g *BaseGoal) GoalState() *worldstate.State { return g.state }

// Priority returns the goal priority for current.
func (g *BaseGoal) Priority(current *worldstate.State) float64 {
	return g.priority(current)
}

// IsSatisfied reports whether current meets the goal state.
func (g *BaseGoal) IsSatisfied(current *worldstate.State) bool {
	if g.satisfied != nil {
		return g.satisfied(current)
	}
	return current.MeetsGoal(g.state)
}
