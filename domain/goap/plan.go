package goap

import (
	"context"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// SearchStats describes the work one search performed.
type SearchStats struct {
	Iterations int
	Generated  int
	Duration   time.Duration
}

// Plan is an ordered action sequence toward a goal.
type Plan struct {
	Goal      Goal
	Actions   []Action
	Cost      float64
	Stats     SearchStats
	CreatedAt time.Time
}

// Len returns the number of remaining actions.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Actions)
}

// Empty reports whether no actions remain.
func (p *Plan) Empty() bool { return p.Len() == 0 }

// Peek returns the next action without removing it.
func (p *Plan) Peek() Action {
	if p.Empty() {
		return nil
	}
	return p.Actions[0]
}

// Pop removes and returns the next action.
func (p *Plan) Pop() Action {
	if p.Empty() {
		return nil
	}
	a := p.Actions[0]
	p.Actions = p.Actions[1:]
	return a
}

// Names returns the remaining action names in order.
func (p *Plan) Names() []string {
	names := make([]string, 0, p.Len())
	if p == nil {
		return names
	}
	for _, a := range p.Actions {
		names = append(names, a.Name())
	}
	return names
}

// Clone returns a copy whose action queue can be consumed independently.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Actions = append([]Action(nil), p.Actions...)
	return &c
}

// PlanCallback receives a search result. A nil plan means no plan was found.
type PlanCallback func(plan *Plan)

// Searcher finds plans. Implementations must be safe for concurrent use.
type Searcher interface {
	Plan(ctx context.Context, agent Agent, start, goal *worldstate.State, actions []Action) (*Plan, error)
}

// Requester is the view of an agent the planning coordinator works with.
type Requester interface {
	Agent

	// Actions returns a snapshot of the agent's registered actions.
	Actions() []Action

	// Valid reports whether results may still be delivered to the agent.
	Valid() bool
}

// Coordinator serializes plan requests from many agents.
type Coordinator interface {
	// RequestPlan queues a search for goal. The callback runs exactly once,
	// on a later tick, unless the agent has become invalid.
	RequestPlan(agent Requester, goal Goal, callback PlanCallback) error
}
