// Package application provides the agent runtime: the think cycle that turns
// sensor readings into goals, plans and executed actions.
package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/felixgeelhaar/goap-go/domain/agent"
	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/planner"
	"github.com/felixgeelhaar/goap-go/infrastructure/resilience"
	"github.com/felixgeelhaar/goap-go/infrastructure/statemachine"
	infratel "github.com/felixgeelhaar/goap-go/infrastructure/telemetry"
)

// Agent owns a world state, goal/action/sensor registries and the think
// cycle state machine.
//
// Tick must not be called concurrently with itself. The management API is
// safe to call from other goroutines.
type Agent struct {
	id     string
	memory atomic.Pointer[worldstate.State]

	regMu   sync.RWMutex
	goals   []goap.Goal
	actions []goap.Action
	sensors []goap.Sensor

	// Think-cycle state, guarded by mu.
	mu            sync.Mutex
	interp        *statemachine.Interpreter
	plan          *goap.Plan
	currentGoal   goap.Goal
	currentAction goap.Action
	generation    uint64
	waited        int
	ticks         uint64
	requests      uint64
	lastErr       error

	inbox    inbox
	disabled atomic.Bool
	closed   atomic.Bool

	coordinator      goap.Coordinator
	searcher         goap.Searcher
	throttle         *resilience.Throttle
	throttleConfig   resilience.ThrottleConfig
	guard            *resilience.SensorGuard
	recoverer        *resilience.Recoverer
	resilienceConfig resilience.Config
	fallback         bt.Node
	recorder         *Recorder
	metrics          infratel.Metrics
	now              func() time.Time
	onDisabled       func(a *Agent, err error)
	maxPlanWait      int
	requireSensors   bool
}

// New creates an agent. An empty id is replaced by a random UUID.
func New(id string, opts ...Option) (*Agent, error) {
	if id == "" {
		id = uuid.New().String()
	}

	a := &Agent{
		id:               id,
		throttleConfig:   resilience.DefaultThrottleConfig(),
		resilienceConfig: resilience.DefaultConfig(),
		fallback:         Idle(),
		recorder:         NewRecorder(nil),
		metrics:          infratel.NoopMetricsProvider{},
		now:              time.Now,
		maxPlanWait:      DefaultMaxPlanWait,
		requireSensors:   true,
	}
	a.memory.Store(worldstate.New())

	for _, opt := range opts {
		opt(a)
	}

	interp, err := statemachine.New(id)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", id, err)
	}
	a.interp = interp
	a.throttle = resilience.NewThrottle(a.throttleConfig, a.now)
	a.guard = resilience.NewSensorGuard(a.resilienceConfig)
	a.recoverer = resilience.NewRecoverer(a.resilienceConfig)
	if a.coordinator == nil {
		if a.searcher == nil {
			a.searcher = planner.New()
		}
		a.coordinator = &inlineCoordinator{searcher: a.searcher, metrics: a.metrics}
	}

	return a, nil
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Memory returns the live world state. It is nil only when the agent has
// been corrupted.
func (a *Agent) Memory() *worldstate.State { return a.memory.Load() }

// Valid reports whether plan results may still be delivered to the agent.
func (a *Agent) Valid() bool {
	return !a.disabled.Load() && !a.closed.Load()
}

// Close marks the agent destroyed. Outstanding plan results are dropped.
func (a *Agent) Close() {
	a.closed.Store(true)
}

// Enabled reports whether planning is still possible.
func (a *Agent) Enabled() bool { return !a.disabled.Load() }

// AddGoal registers a goal, replacing any goal with the same name.
func (a *Agent) AddGoal(g goap.Goal) error {
	if g == nil {
		return goap.ErrNilGoal
	}
	a.regMu.Lock()
	defer a.regMu.Unlock()
	a.goals = replaceOrAppend(a.goals, g, func(x goap.Goal) string { return x.Name() })
	return nil
}

// RemoveGoal unregisters a goal. A plan toward it is abandoned next tick.
func (a *Agent) RemoveGoal(name string) bool {
	a.regMu.Lock()
	defer a.regMu.Unlock()
	var removed bool
	a.goals, removed = remove(a.goals, name, func(x goap.Goal) string { return x.Name() })
	return removed
}

// AddAction registers an action, replacing any action with the same name.
func (a *Agent) AddAction(act goap.Action) error {
	if act == nil || act.Name() == "" {
		return goap.ErrInvalidAction
	}
	a.regMu.Lock()
	defer a.regMu.Unlock()
	a.actions = replaceOrAppend(a.actions, act, func(x goap.Action) string { return x.Name() })
	return nil
}

// RemoveAction unregisters an action.
func (a *Agent) RemoveAction(name string) bool {
	a.regMu.Lock()
	defer a.regMu.Unlock()
	var removed bool
	a.actions, removed = remove(a.actions, name, func(x goap.Action) string { return x.Name() })
	return removed
}

// AddSensor registers a sensor and calls its Init hook.
func (a *Agent) AddSensor(s goap.Sensor) error {
	if s == nil {
		return ErrNilSensor
	}
	a.regMu.Lock()
	a.sensors = replaceOrAppend(a.sensors, s, func(x goap.Sensor) string { return x.Name() })
	a.regMu.Unlock()

	a.guard.Forget(s.Name())
	s.Init(a)
	return nil
}

// RemoveSensor unregisters a sensor.
func (a *Agent) RemoveSensor(name string) bool {
	a.regMu.Lock()
	defer a.regMu.Unlock()
	var removed bool
	a.sensors, removed = remove(a.sensors, name, func(x goap.Sensor) string { return x.Name() })
	if removed {
		a.guard.Forget(name)
	}
	return removed
}

// Goals returns a snapshot of the registered goals.
func (a *Agent) Goals() []goap.Goal {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	return append([]goap.Goal(nil), a.goals...)
}

// Actions returns a snapshot of the registered actions.
func (a *Agent) Actions() []goap.Action {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	return append([]goap.Action(nil), a.actions...)
}

// Sensors returns a snapshot of the registered sensors.
func (a *Agent) Sensors() []goap.Sensor {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	return append([]goap.Sensor(nil), a.sensors...)
}

// SetFallback replaces the fallback behavior.
func (a *Agent) SetFallback(node bt.Node) {
	if node == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fallback = node
}

// SetPlan installs plan directly and starts executing it. Any outstanding
// plan request is abandoned.
func (a *Agent) SetPlan(plan *goap.Plan) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if plan.Empty() {
		return fmt.Errorf("%w: empty plan", ErrPlanRejected)
	}
	if !a.interp.CanTransition(agent.StateExecuting) && a.interp.State() != agent.StateExecuting {
		return fmt.Errorf("%w: agent is %s", ErrPlanRejected, a.interp.State())
	}

	a.abandon()
	a.plan = plan.Clone()
	a.currentGoal = plan.Goal
	a.transition(context.Background(), agent.StateExecuting, "plan set")
	return nil
}

// ClearPlan drops the plan, the running action and the current goal.
func (a *Agent) ClearPlan() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.abandon()
	if s := a.interp.State(); s == agent.StatePlanning || s == agent.StateExecuting {
		a.transition(context.Background(), agent.StateIdle, "plan cleared")
	}
}

// abandon clears plan state and invalidates outstanding requests.
func (a *Agent) abandon() {
	a.plan = nil
	a.currentAction = nil
	a.currentGoal = nil
	a.waited = 0
	a.generation++
}

// CurrentAction returns the running action, if any.
func (a *Agent) CurrentAction() goap.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentAction
}

// CurrentGoal returns the goal being pursued, if any.
func (a *Agent) CurrentGoal() goap.Goal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentGoal
}

// HasPlan reports whether actions remain to be executed.
func (a *Agent) HasPlan() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentAction != nil || !a.plan.Empty()
}

// IsActionRunning reports whether an action is mid-execution.
func (a *Agent) IsActionRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentAction != nil
}

// State returns the think-cycle state.
func (a *Agent) State() agent.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interp.State()
}

// Err returns the error that disabled the agent, or nil.
func (a *Agent) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Ticks returns how many ticks have run.
func (a *Agent) Ticks() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ticks
}

// PlanRequests returns how many plan requests the agent has issued.
func (a *Agent) PlanRequests() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

func replaceOrAppend[T any](items []T, item T, name func(T) string) []T {
	for i, existing := range items {
		if name(existing) == name(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func remove[T any](items []T, target string, name func(T) string) ([]T, bool) {
	for i, existing := range items {
		if name(existing) == target {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

var _ goap.Requester = (*Agent)(nil)
