// Package planner implements the A* search that turns a start state, a goal
// state and a set of actions into the cheapest plan.
//
// The heuristic is the number of unsatisfied goal keys. It is only
// admissible when every action costs at least one unit per key it resolves,
// so with arbitrary cost functions the returned plan may cost more than the
// optimum. This is an accepted approximation.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/telemetry"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/observability"
)

// DefaultMaxIterations caps node expansions per search.
const DefaultMaxIterations = 1000

// ctxCheckInterval is how many expansions run between context checks.
const ctxCheckInterval = 64

// EarlyExit ends a search successfully at the first popped node for which it
// returns true.
type EarlyExit func(n *Node) bool

// Config configures the planner.
type Config struct {
	// MaxIterations caps node expansions. Exceeding it yields ErrNoPlan.
	MaxIterations int

	// MinCost is the floor applied to every action cost.
	MinCost float64

	// HeuristicStopAt bounds the missing-key count used as heuristic.
	// Zero counts every key.
	HeuristicStopAt int
}

// DefaultConfig returns the default planner configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:   DefaultMaxIterations,
		MinCost:         goap.MinCost,
		HeuristicStopAt: worldstate.NoLimit,
	}
}

// Option configures a Planner.
type Option func(*Planner)

// WithMaxIterations sets the expansion cap.
func WithMaxIterations(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.config.MaxIterations = n
		}
	}
}

// WithMinCost sets the cost floor.
func WithMinCost(c float64) Option {
	return func(p *Planner) {
		if c > 0 {
			p.config.MinCost = c
		}
	}
}

// WithHeuristicStopAt bounds heuristic computation.
func WithHeuristicStopAt(n int) Option {
	return func(p *Planner) {
		p.config.HeuristicStopAt = n
	}
}

// WithEarlyExit sets a default early-exit predicate for every search.
func WithEarlyExit(fn EarlyExit) Option {
	return func(p *Planner) {
		p.earlyExit = fn
	}
}

// WithTracer wraps every search in a span.
func WithTracer(t telemetry.Tracer) Option {
	return func(p *Planner) {
		p.tracer = t
	}
}

// Planner runs A* searches. A Planner holds no per-search state and is safe
// for concurrent use.
type Planner struct {
	config    Config
	earlyExit EarlyExit
	tracer    telemetry.Tracer
}

// New creates a planner with the default configuration.
func New(opts ...Option) *Planner {
	return NewWithConfig(DefaultConfig(), opts...)
}

// NewWithConfig creates a planner from cfg, filling zero fields with defaults.
func NewWithConfig(cfg Config, opts ...Option) *Planner {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.MinCost <= 0 {
		cfg.MinCost = def.MinCost
	}
	p := &Planner{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Planner) Config() Config { return p.config }

// Request describes one search.
type Request struct {
	Agent   goap.Agent
	Start   *worldstate.State
	Goal    *worldstate.State
	Actions []goap.Action

	// EarlyExit overrides the planner's default predicate when set.
	EarlyExit EarlyExit
}

// Plan implements goap.Searcher.
func (p *Planner) Plan(ctx context.Context, agent goap.Agent, start, goal *worldstate.State, actions []goap.Action) (*goap.Plan, error) {
	return p.Search(ctx, Request{
		Agent:   agent,
		Start:   start,
		Goal:    goal,
		Actions: actions,
	})
}

// Search finds the cheapest action sequence from req.Start to a state
// meeting req.Goal. It returns goap.ErrNoPlan when the frontier is exhausted
// or the iteration cap is reached first.
func (p *Planner) Search(ctx context.Context, req Request) (*goap.Plan, error) {
	for i, a := range req.Actions {
		if a == nil || a.Name() == "" {
			return nil, fmt.Errorf("%w: index %d", goap.ErrInvalidAction, i)
		}
	}

	ctx, tr := observability.StartPlan(ctx, p.tracer, req.Start, req.Goal, req.Actions)
	plan, err := p.search(ctx, req)
	tr.Finish(plan, err)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *Planner) search(ctx context.Context, req Request) (*goap.Plan, error) {
	began := time.Now()
	earlyExit := req.EarlyExit
	if earlyExit == nil {
		earlyExit = p.earlyExit
	}

	start := req.Start.Clone()
	open := newOpenSet()
	closed := make(closedSet)

	open.push(&Node{
		State: start,
		H:     p.heuristic(start, req.Goal),
		hash:  start.Hash(),
	})

	iterations, generated := 0, 1
	for open.Len() > 0 && iterations < p.config.MaxIterations {
		iterations++
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		n := open.pop()
		if n.State.MeetsGoal(req.Goal) || (earlyExit != nil && earlyExit(n)) {
			return &goap.Plan{
				Actions:   n.Path(),
				Cost:      n.G,
				CreatedAt: time.Now(),
				Stats: goap.SearchStats{
					Iterations: iterations,
					Generated:  generated,
					Duration:   time.Since(began),
				},
			}, nil
		}

		closed.add(n.hash, n.State)

		for _, a := range req.Actions {
			if !n.State.MeetsGoal(a.Preconditions(req.Agent)) {
				continue
			}

			succ := n.State.Apply(a.Effects(req.Agent))
			hash := succ.Hash()
			if closed.contains(hash, succ) {
				continue
			}

			cost := a.Cost(req.Agent, n.State)
			if cost < p.config.MinCost {
				cost = p.config.MinCost
			}
			g := n.G + cost

			if existing := open.find(hash, succ); existing != nil {
				if existing.G <= g {
					continue
				}
				open.improve(existing, n, a, g)
				continue
			}

			open.push(&Node{
				State:  succ,
				Action: a,
				Parent: n,
				G:      g,
				H:      p.heuristic(succ, req.Goal),
				Depth:  n.Depth + 1,
				hash:   hash,
			})
			generated++
		}
	}

	return nil, goap.ErrNoPlan
}

func (p *Planner) heuristic(s, goal *worldstate.State) float64 {
	return float64(s.MissingCount(goal, p.config.HeuristicStopAt))
}

var _ goap.Searcher = (*Planner)(nil)
