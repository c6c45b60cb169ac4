package scenario

import (
	"fmt"

	"github.com/felixgeelhaar/goap-go/domain/config"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// Validate checks the scenario and its runtime configuration.
func (s *Scenario) Validate() config.ValidationErrors {
	v := &validator{}

	for _, e := range config.NewValidator().Validate(&s.Runtime) {
		v.add("runtime."+e.Path, e.Message)
	}

	registry := s.registry(v)

	if len(s.Agents) == 0 {
		v.add("agents", "at least one agent is required")
	}
	seen := make(map[string]bool)
	for i, a := range s.Agents {
		path := fmt.Sprintf("agents[%d]", i)
		if a.ID == "" {
			v.add(path+".id", "id is required")
		}
		if a.Count < 0 {
			v.add(path+".count", "count must be non-negative")
		}
		for _, id := range a.ids() {
			if id != "" && seen[id] {
				v.add(path+".id", fmt.Sprintf("duplicate agent id %q", id))
			}
			seen[id] = true
		}
		v.agent(path, a, registry)
	}
	return v.errs
}

// registry declares the scenario keys, reporting bad declarations to v.
func (s *Scenario) registry(v *validator) *worldstate.Registry {
	r := worldstate.NewRegistry()
	for i, k := range s.Keys {
		path := fmt.Sprintf("keys[%d]", i)
		kind, err := worldstate.ParseKind(k.Kind)
		if err != nil {
			v.add(path+".kind", err.Error())
			continue
		}
		if err := r.Declare(worldstate.Key(k.Name), kind); err != nil {
			v.add(path, err.Error())
		}
	}
	return r
}

type validator struct {
	errs config.ValidationErrors
}

func (v *validator) add(path, message string) {
	v.errs = append(v.errs, config.ValidationError{Path: path, Message: message})
}

func (v *validator) state(path string, m map[string]any, r *worldstate.Registry) {
	if _, err := toState(m, r); err != nil {
		v.add(path, err.Error())
	}
}

func (v *validator) expression(path, source string) {
	if source == "" {
		return
	}
	if _, err := Compile(source); err != nil {
		v.add(path, err.Error())
	}
}

func (v *validator) agent(path string, a AgentSpec, r *worldstate.Registry) {
	v.state(path+".memory", a.Memory, r)

	actions := make(map[string]bool)
	for i, act := range a.Actions {
		p := fmt.Sprintf("%s.actions[%d]", path, i)
		switch {
		case act.Name == "":
			v.add(p+".name", "name is required")
		case actions[act.Name]:
			v.add(p+".name", fmt.Sprintf("duplicate action %q", act.Name))
		}
		actions[act.Name] = true

		v.state(p+".pre", act.Pre, r)
		v.state(p+".effects", act.Effects, r)
		v.expression(p+".cost_expr", act.CostExpr)
		v.expression(p+".when", act.When)
		if act.Cost < 0 {
			v.add(p+".cost", "cost must be non-negative")
		}
		if act.Duration < 0 {
			v.add(p+".duration", "duration must be non-negative")
		}
		if act.FailChance < 0 || act.FailChance > 1 {
			v.add(p+".fail_chance", "fail_chance must be between 0 and 1")
		}
	}

	goals := make(map[string]bool)
	for i, g := range a.Goals {
		p := fmt.Sprintf("%s.goals[%d]", path, i)
		switch {
		case g.Name == "":
			v.add(p+".name", "name is required")
		case goals[g.Name]:
			v.add(p+".name", fmt.Sprintf("duplicate goal %q", g.Name))
		}
		goals[g.Name] = true
		if len(g.State) == 0 {
			v.add(p+".state", "state is required")
		}
		v.state(p+".state", g.State, r)
		v.expression(p+".priority_expr", g.PriorityExpr)
	}

	if len(a.Sensors) == 0 {
		v.add(path+".sensors", "at least one sensor is required")
	}
	for i, s := range a.Sensors {
		v.sensor(fmt.Sprintf("%s.sensors[%d]", path, i), s, r)
	}

	for i, name := range a.Fallback {
		if !actions[name] {
			v.add(fmt.Sprintf("%s.fallback[%d]", path, i), fmt.Sprintf("unknown action %q", name))
		}
	}
}

func (v *validator) sensor(path string, s SensorSpec, r *worldstate.Registry) {
	if s.Name == "" {
		v.add(path+".name", "name is required")
	}
	if s.Key == "" {
		v.add(path+".key", "key is required")
	}

	switch s.Kind {
	case SensorSet:
		if s.Value == nil {
			v.add(path+".value", "value is required for set sensors")
			return
		}
		v.state(path+".value", map[string]any{s.Key: s.Value}, r)
	case SensorNoise:
		if s.Frequency <= 0 {
			v.add(path+".frequency", "frequency must be positive")
		}
		if s.Max < s.Min {
			v.add(path+".max", "max must not be below min")
		}
	case SensorExpr:
		if s.Expr == "" {
			v.add(path+".expr", "expr is required for expr sensors")
		}
		v.expression(path+".expr", s.Expr)
	default:
		v.add(path+".kind", fmt.Sprintf("unknown sensor kind %q", s.Kind))
	}
}

// toState converts plain values into a world state, coercing numbers to
// the declared key kind.
func toState(m map[string]any, r *worldstate.Registry) (*worldstate.State, error) {
	s := worldstate.New()
	for k, raw := range m {
		key := worldstate.Key(k)
		val, err := coerce(key, raw, r)
		if err != nil {
			return nil, err
		}
		s.Set(key, val)
	}
	return s, nil
}

func coerce(key worldstate.Key, raw any, r *worldstate.Registry) (worldstate.Value, error) {
	val := worldstate.FromInterface(raw)
	kind, declared := r.Lookup(key)
	if !declared {
		return val, nil
	}
	if kind == worldstate.KindFloat && val.Kind() == worldstate.KindInt {
		i, _ := val.AsInt()
		val = worldstate.Float(float64(i))
	}
	if err := r.Check(key, val); err != nil {
		return worldstate.Value{}, err
	}
	return val, nil
}
