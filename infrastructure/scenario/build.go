package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/domain/config"
	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
	"github.com/felixgeelhaar/goap-go/infrastructure/planner"
	"github.com/felixgeelhaar/goap-go/infrastructure/resilience"
)

// RuntimeOptions maps runtime configuration onto agent options.
func RuntimeOptions(cfg config.RuntimeConfig) []application.Option {
	return []application.Option{
		application.WithThrottle(resilience.ThrottleConfig{
			MaxReplans: cfg.Throttle.MaxReplans,
			Window:     time.Duration(cfg.Throttle.Window),
			Cooldown:   time.Duration(cfg.Throttle.Cooldown),
		}),
		application.WithResilience(resilience.NewConfig(
			resilience.WithRecoveryAttempts(cfg.Recovery.Attempts),
			resilience.WithRecoveryDelay(time.Duration(cfg.Recovery.Delay)),
			resilience.WithSensorFailureThreshold(cfg.Recovery.SensorFailureThreshold),
			resilience.WithSensorCooldown(time.Duration(cfg.Recovery.SensorCooldown)),
		)),
		application.WithSearcher(NewPlanner(cfg)),
	}
}

// NewPlanner creates a planner from the runtime configuration.
func NewPlanner(cfg config.RuntimeConfig, opts ...planner.Option) *planner.Planner {
	return planner.NewWithConfig(planner.Config{
		MaxIterations: cfg.Planner.MaxIterations,
		MinCost:       cfg.Planner.MinCost,
	}, opts...)
}

// Build creates the scenario's agents. opts are applied to every agent
// after the scenario's runtime options, so callers can override them.
func (s *Scenario) Build(opts ...application.Option) ([]*application.Agent, error) {
	if errs := s.Validate(); errs.HasErrors() {
		return nil, errors.Join(ErrInvalidScenario, errs)
	}
	registry := s.registry(&validator{})
	base := append(RuntimeOptions(s.Runtime), opts...)

	var agents []*application.Agent
	for _, spec := range s.Agents {
		for _, id := range spec.ids() {
			a, err := s.buildAgent(id, spec, registry, uint64(len(agents)), base) // #nosec G115 -- index is non-negative
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", id, err)
			}
			agents = append(agents, a)
		}
	}

	logging.Debug().
		Add(logging.Component("scenario")).
		Add(logging.Str("scenario", s.Name)).
		Add(logging.Int("agents", len(agents))).
		Msg("scenario built")
	return agents, nil
}

func (s *Scenario) buildAgent(id string, spec AgentSpec, r *worldstate.Registry, index uint64, opts []application.Option) (*application.Agent, error) {
	memory, err := toState(spec.Memory, r)
	if err != nil {
		return nil, err
	}
	seed := uint64(s.Seed) // #nosec G115 -- any seed bit pattern is fine

	actions := make(map[string]goap.Action, len(spec.Actions))
	list := make([]goap.Action, 0, len(spec.Actions))
	for i, as := range spec.Actions {
		rng := rand.New(rand.NewPCG(seed, index<<16|uint64(i))) // #nosec G404 -- simulation rolls
		act, err := buildAction(as, r, rng)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", as.Name, err)
		}
		actions[as.Name] = act
		list = append(list, act)
	}

	agentOpts := append([]application.Option{application.WithMemory(memory)}, opts...)
	a, err := application.New(id, agentOpts...)
	if err != nil {
		return nil, err
	}

	for _, act := range list {
		if err := a.AddAction(act); err != nil {
			return nil, err
		}
	}
	for _, gs := range spec.Goals {
		g, err := buildGoal(gs, r)
		if err != nil {
			return nil, fmt.Errorf("goal %s: %w", gs.Name, err)
		}
		if err := a.AddGoal(g); err != nil {
			return nil, err
		}
	}
	for i, ss := range spec.Sensors {
		sensor, err := buildSensor(ss, r, s.Seed+int64(index)<<8+int64(i)) // #nosec G115 -- index is small
		if err != nil {
			return nil, fmt.Errorf("sensor %s: %w", ss.Name, err)
		}
		if err := a.AddSensor(sensor); err != nil {
			return nil, err
		}
	}

	if len(spec.Fallback) > 0 {
		fallback := make([]goap.Action, 0, len(spec.Fallback))
		for _, name := range spec.Fallback {
			fallback = append(fallback, actions[name])
		}
		a.SetFallback(application.FallbackSelector(a, fallback...))
	}
	return a, nil
}

// simAction is a scenario action: it runs for a number of ticks, may fail
// at random and writes its effects into memory on success.
type simAction struct {
	*goap.BaseAction
	effects    *worldstate.State
	duration   int
	failChance float64
	rng        *rand.Rand
	progress   int
}

func buildAction(spec ActionSpec, r *worldstate.Registry, rng *rand.Rand) (*simAction, error) {
	pre, err := toState(spec.Pre, r)
	if err != nil {
		return nil, err
	}
	effects, err := toState(spec.Effects, r)
	if err != nil {
		return nil, err
	}

	sa := &simAction{
		effects:    effects,
		duration:   spec.Duration,
		failChance: spec.FailChance,
		rng:        rng,
	}

	opts := []goap.ActionOption{
		goap.WithPreconditions(pre),
		goap.WithEffects(effects),
		goap.WithRun(sa.run),
		goap.WithReset(func() { sa.progress = 0 }),
	}
	if spec.Cost > 0 {
		opts = append(opts, goap.WithCost(spec.Cost))
	}
	if spec.CostExpr != "" {
		cost, err := Compile(spec.CostExpr)
		if err != nil {
			return nil, err
		}
		fallback := spec.Cost
		if fallback <= 0 {
			fallback = 1
		}
		opts = append(opts, goap.WithCostFunc(func(_ goap.Agent, state *worldstate.State) float64 {
			c, err := cost.Float(state)
			if err != nil {
				return fallback
			}
			return c
		}))
	}
	if spec.When != "" {
		when, err := Compile(spec.When)
		if err != nil {
			return nil, err
		}
		opts = append(opts, goap.WithCheck(func(_ goap.Agent, state *worldstate.State) bool {
			ok, err := when.Bool(state)
			return err == nil && ok && state.MeetsGoal(pre)
		}))
	}
	if spec.Interruptible {
		opts = append(opts, goap.Interruptible())
	}

	sa.BaseAction = goap.NewAction(spec.Name, opts...)
	return sa, nil
}

func (a *simAction) run(agent goap.Agent) goap.Result {
	a.progress++
	if a.progress < a.duration {
		return goap.Running
	}
	a.progress = 0
	if a.failChance > 0 && a.rng.Float64() < a.failChance {
		return goap.Failure
	}

	memory := agent.Memory()
	a.effects.Range(func(k worldstate.Key, v worldstate.Value) bool {
		memory.Set(k, v)
		return true
	})
	return goap.Success
}

func buildGoal(spec GoalSpec, r *worldstate.Registry) (goap.Goal, error) {
	state, err := toState(spec.State, r)
	if err != nil {
		return nil, err
	}

	var opts []goap.GoalOption
	if spec.Priority != 0 {
		opts = append(opts, goap.WithPriority(spec.Priority))
	}
	if spec.PriorityExpr != "" {
		priority, err := Compile(spec.PriorityExpr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, goap.WithPriorityFunc(func(current *worldstate.State) float64 {
			p, err := priority.Float(current)
			if err != nil {
				return 0
			}
			return p
		}))
	}
	return goap.NewGoal(spec.Name, state, opts...), nil
}

func buildSensor(spec SensorSpec, r *worldstate.Registry, seed int64) (goap.Sensor, error) {
	key := worldstate.Key(spec.Key)

	switch spec.Kind {
	case SensorSet:
		val, err := coerce(key, spec.Value, r)
		if err != nil {
			return nil, err
		}
		return goap.NewSensor(spec.Name, func(agent goap.Agent) error {
			agent.Memory().Set(key, val)
			return nil
		}), nil

	case SensorExpr:
		e, err := Compile(spec.Expr)
		if err != nil {
			return nil, err
		}
		return goap.NewSensor(spec.Name, func(agent goap.Agent) error {
			memory := agent.Memory()
			out, err := e.Eval(memory)
			if err != nil {
				return err
			}
			val, err := coerce(key, out, r)
			if err != nil {
				return err
			}
			memory.Set(key, val)
			return nil
		}), nil

	case SensorNoise:
		return newNoiseSensor(spec, seed), nil

	default:
		return nil, fmt.Errorf("unknown sensor kind %q", spec.Kind)
	}
}

// noiseSensor samples smooth simplex noise along the tick axis, giving
// values that drift instead of jumping.
type noiseSensor struct {
	spec  SensorSpec
	key   worldstate.Key
	noise opensimplex.Noise
	step  int
}

func newNoiseSensor(spec SensorSpec, seed int64) *noiseSensor {
	if spec.Max == spec.Min {
		spec.Min, spec.Max = 0, 1
	}
	return &noiseSensor{
		spec:  spec,
		key:   worldstate.Key(spec.Key),
		noise: opensimplex.NewNormalized(seed),
	}
}

func (s *noiseSensor) Name() string { return s.spec.Name }

func (s *noiseSensor) Init(agent goap.Agent) {
	_ = s.Update(agent)
}

func (s *noiseSensor) Update(agent goap.Agent) error {
	n := s.noise.Eval2(float64(s.step)*s.spec.Frequency, 0)
	s.step++

	v := s.spec.Min + n*(s.spec.Max-s.spec.Min)
	memory := agent.Memory()
	if s.spec.Threshold != nil {
		memory.SetBool(s.key, v >= *s.spec.Threshold)
		return nil
	}
	memory.SetFloat(s.key, v)
	return nil
}
