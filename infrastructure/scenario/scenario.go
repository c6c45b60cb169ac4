// Package scenario builds agents from declarative YAML or JSON descriptions
// so simulations can be run without writing Go.
package scenario

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/goap-go/domain/config"
	cfgloader "github.com/felixgeelhaar/goap-go/infrastructure/config"
)

// ErrInvalidScenario wraps every validation failure.
var ErrInvalidScenario = errors.New("scenario: invalid")

// Sensor kinds.
const (
	SensorSet   = "set"
	SensorNoise = "noise"
	SensorExpr  = "expr"
)

// Scenario describes a set of agents sharing one world schema.
type Scenario struct {
	// Name identifies the scenario in logs.
	Name string `json:"name" yaml:"name"`

	// Seed drives noise sensors and action failure rolls.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Runtime overrides the default runtime configuration.
	Runtime config.RuntimeConfig `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	// Keys declares the kind of every world-state key.
	Keys []KeySpec `json:"keys,omitempty" yaml:"keys,omitempty"`

	// Agents lists the agents to build.
	Agents []AgentSpec `json:"agents" yaml:"agents"`
}

// KeySpec declares a world-state key.
type KeySpec struct {
	Name string `json:"name" yaml:"name"`
	// Kind is bool, int, float or object.
	Kind string `json:"kind" yaml:"kind"`
}

// AgentSpec describes one agent, or Count identical agents.
type AgentSpec struct {
	ID string `json:"id" yaml:"id"`

	// Count replicates the agent. IDs get a numeric suffix when above one.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	Memory   map[string]any `json:"memory,omitempty" yaml:"memory,omitempty"`
	Actions  []ActionSpec   `json:"actions,omitempty" yaml:"actions,omitempty"`
	Goals    []GoalSpec     `json:"goals,omitempty" yaml:"goals,omitempty"`
	Sensors  []SensorSpec   `json:"sensors,omitempty" yaml:"sensors,omitempty"`
	Fallback []string       `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// ActionSpec describes an action.
type ActionSpec struct {
	Name    string         `json:"name" yaml:"name"`
	Pre     map[string]any `json:"pre,omitempty" yaml:"pre,omitempty"`
	Effects map[string]any `json:"effects,omitempty" yaml:"effects,omitempty"`

	// Cost is the static cost. CostExpr, when set, is evaluated against
	// the search state instead.
	Cost     float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	CostExpr string  `json:"cost_expr,omitempty" yaml:"cost_expr,omitempty"`

	// When is an extra execution-time condition on live memory.
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	// Duration is how many ticks the action runs before it completes.
	Duration int `json:"duration,omitempty" yaml:"duration,omitempty"`

	// FailChance is the probability in [0,1] that completion fails.
	FailChance float64 `json:"fail_chance,omitempty" yaml:"fail_chance,omitempty"`

	Interruptible bool `json:"interruptible,omitempty" yaml:"interruptible,omitempty"`
}

// GoalSpec describes a goal.
type GoalSpec struct {
	Name         string         `json:"name" yaml:"name"`
	State        map[string]any `json:"state" yaml:"state"`
	Priority     float64        `json:"priority,omitempty" yaml:"priority,omitempty"`
	PriorityExpr string         `json:"priority_expr,omitempty" yaml:"priority_expr,omitempty"`
}

// SensorSpec describes a sensor writing one key.
type SensorSpec struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
	Key  string `json:"key" yaml:"key"`

	// Value is written by set sensors.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Expr is evaluated by expr sensors.
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`

	// Frequency, Min and Max shape noise sensors. With Threshold set the
	// sensor writes a bool instead of the sampled float.
	Frequency float64  `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Min       float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max       float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Load reads and validates a scenario file. ${VAR} references are expanded.
func Load(path string) (*Scenario, error) {
	format, err := cfgloader.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := cfgloader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(data []byte, format cfgloader.Format) (*Scenario, error) {
	s := &Scenario{Runtime: config.DefaultRuntimeConfig()}

	loader := cfgloader.NewLoader(cfgloader.WithEnvExpansion(true), cfgloader.WithStrict(true))
	if err := loader.Decode(data, format, s); err != nil {
		return nil, err
	}

	if errs := s.Validate(); errs.HasErrors() {
		return nil, errors.Join(ErrInvalidScenario, errs)
	}
	return s, nil
}

// AgentIDs returns the IDs Build will assign, in order.
func (s *Scenario) AgentIDs() []string {
	var ids []string
	for _, spec := range s.Agents {
		ids = append(ids, spec.ids()...)
	}
	return ids
}

func (a AgentSpec) ids() []string {
	if a.Count <= 1 {
		return []string{a.ID}
	}
	ids := make([]string, 0, a.Count)
	for i := 1; i <= a.Count; i++ {
		ids = append(ids, fmt.Sprintf("%s-%d", a.ID, i))
	}
	return ids
}
