package application

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/goap-go/domain/agent"
	"github.com/felixgeelhaar/goap-go/domain/event"
	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
	"github.com/felixgeelhaar/goap-go/infrastructure/resilience"
)

// Tick advances the think cycle by one step: sensors update memory, a
// delivered plan is picked up, and the current state does its work. Tick
// returns a non-nil error only once the agent is disabled.
func (a *Agent) Tick(ctx context.Context) error {
	a.mu.Lock()
	disabledNow, err := a.tick(ctx)
	a.mu.Unlock()

	if disabledNow && a.onDisabled != nil {
		a.onDisabled(a, err)
	}
	return err
}

func (a *Agent) tick(ctx context.Context) (bool, error) {
	a.ticks++
	if a.ticks == 1 {
		a.started(ctx)
	}

	if a.disabled.Load() {
		a.runFallback()
		return false, a.lastErr
	}

	if err := a.validate(); err != nil {
		if err := a.recover(ctx, err); err != nil {
			return true, err
		}
	}

	a.updateSensors(ctx)
	if a.receive(ctx) {
		return false, nil
	}

	if a.interp.State() == agent.StateSuspended {
		if a.throttle.Suspended() {
			a.runFallback()
			return false, nil
		}
		a.resume(ctx)
	}

	switch a.interp.State() {
	case agent.StateExecuting:
		a.step(ctx)
	case agent.StatePlanning:
		a.wait(ctx)
	case agent.StateIdle:
		a.think(ctx)
	}
	return false, nil
}

// receive installs the latest delivered plan if it answers the outstanding
// request. Anything else is stale and dropped. It reports true when a
// failed search used up the tick.
func (a *Agent) receive(ctx context.Context) bool {
	d := a.inbox.take()
	if d == nil {
		return false
	}
	if d.generation != a.generation || a.interp.State() != agent.StatePlanning {
		logging.Debug().
			Add(logging.AgentID(a.id)).
			Add(logging.Int("generation", int(d.generation))).
			Msg("stale plan dropped")
		return false
	}

	name := goalName(a.currentGoal)
	switch {
	case d.plan == nil:
		a.record(ctx, event.TypePlanFailed, event.PlanFailedPayload{Goal: name, Reason: "no plan"})
		logging.Info().
			Add(logging.AgentID(a.id)).
			Add(logging.Goal(name)).
			Msg("no plan found")
		a.currentGoal = nil
		a.transition(ctx, agent.StateIdle, "no plan")
		a.runFallback()
		return true

	case d.plan.Empty():
		a.record(ctx, event.TypePlanCompleted, event.PlanCompletedPayload{Goal: name})
		a.currentGoal = nil
		a.transition(ctx, agent.StateIdle, "goal already met")

	default:
		a.plan = d.plan.Clone()
		a.waited = 0
		a.record(ctx, event.TypePlanFound, event.PlanFoundPayload{
			Goal:       name,
			Actions:    a.plan.Names(),
			Cost:       a.plan.Cost,
			Iterations: a.plan.Stats.Iterations,
		})
		logging.Debug().
			Add(logging.AgentID(a.id)).
			Add(logging.Goal(name)).
			Add(logging.PlanLength(a.plan.Len())).
			Add(logging.Cost(a.plan.Cost)).
			Msg("plan received")
		a.transition(ctx, agent.StateExecuting, "plan found")
	}
	return false
}

// wait handles a tick spent waiting for the coordinator.
func (a *Agent) wait(ctx context.Context) {
	memory := a.memory.Load()
	switch {
	case a.currentGoal == nil || !a.hasGoal(a.currentGoal.Name()):
		a.abandon()
		a.transition(ctx, agent.StateIdle, "goal removed")
	case a.currentGoal.IsSatisfied(memory):
		a.record(ctx, event.TypePlanCompleted, event.PlanCompletedPayload{Goal: a.currentGoal.Name()})
		a.abandon()
		a.transition(ctx, agent.StateIdle, "goal met while planning")
	default:
		a.waited++
		if a.waited <= a.maxPlanWait {
			a.runFallback()
			return
		}
		a.record(ctx, event.TypePlanFailed, event.PlanFailedPayload{Goal: a.currentGoal.Name(), Reason: "timed out"})
		logging.Warn().
			Add(logging.AgentID(a.id)).
			Add(logging.Goal(a.currentGoal.Name())).
			Add(logging.Int("waited_ticks", a.waited)).
			Msg("plan request timed out")
		a.abandon()
		a.transition(ctx, agent.StateIdle, "plan timed out")
		a.runFallback()
	}
}

// think selects the most urgent unmet goal and requests a plan for it.
func (a *Agent) think(ctx context.Context) {
	goal, priority := a.selectGoal(a.memory.Load())
	if goal == nil {
		a.runFallback()
		return
	}
	a.requestPlan(ctx, goal, priority)
}

func (a *Agent) selectGoal(memory *worldstate.State) (goap.Goal, float64) {
	var (
		best         goap.Goal
		bestPriority float64
	)
	for _, g := range a.Goals() {
		if g.IsSatisfied(memory) {
			continue
		}
		p := g.Priority(memory)
		if p <= 0 {
			continue
		}
		if best == nil || p > bestPriority {
			best, bestPriority = g, p
		}
	}
	return best, bestPriority
}

func (a *Agent) requestPlan(ctx context.Context, goal goap.Goal, priority float64) {
	if !a.throttle.Allow() {
		a.suspend(ctx, "replanning storm")
		return
	}

	a.generation++
	generation := a.generation
	a.currentGoal = goal
	a.waited = 0
	a.requests++

	a.transition(ctx, agent.StatePlanning, "goal selected")
	a.record(ctx, event.TypeGoalSelected, event.GoalSelectedPayload{Goal: goal.Name(), Priority: priority})
	a.record(ctx, event.TypePlanRequested, event.PlanRequestedPayload{Goal: goal.Name(), Generation: generation})

	err := a.coordinator.RequestPlan(a, goal, func(plan *goap.Plan) {
		a.inbox.put(generation, plan)
	})
	if err != nil {
		logging.Warn().
			Add(logging.AgentID(a.id)).
			Add(logging.Goal(goal.Name())).
			Add(logging.ErrorField(err)).
			Msg("plan request rejected")
		a.record(ctx, event.TypePlanFailed, event.PlanFailedPayload{Goal: goal.Name(), Reason: err.Error()})
		a.abandon()
		a.transition(ctx, agent.StateIdle, "plan request rejected")
	}
}

// step executes the current plan by one action tick.
func (a *Agent) step(ctx context.Context) {
	if a.currentGoal != nil && !a.hasGoal(a.currentGoal.Name()) {
		a.abandon()
		a.transition(ctx, agent.StateIdle, "goal removed")
		return
	}

	if a.currentAction == nil {
		if a.plan.Empty() {
			a.complete(ctx)
			return
		}
		next := a.plan.Pop()
		if !next.CheckPreconditions(a, a.memory.Load()) {
			a.fail(ctx, next, "preconditions no longer hold")
			return
		}
		next.Reset()
		a.currentAction = next
		a.record(ctx, event.TypeActionStarted, event.ActionPayload{Action: next.Name()})
	}

	act := a.currentAction
	switch safeRun(act, a) {
	case goap.Success:
		a.currentAction = nil
		a.record(ctx, event.TypeActionSucceeded, event.ActionPayload{Action: act.Name()})
		a.metrics.RecordActionResult(ctx, a.id, act.Name(), true)
		if a.plan.Empty() {
			a.complete(ctx)
		}
	case goap.Failure:
		act.RecordFailure()
		a.fail(ctx, act, "action failed")
	case goap.Running:
	}
}

// complete finishes the current plan and immediately looks for the next goal.
func (a *Agent) complete(ctx context.Context) {
	name := goalName(a.currentGoal)
	a.record(ctx, event.TypePlanCompleted, event.PlanCompletedPayload{Goal: name})
	logging.Debug().
		Add(logging.AgentID(a.id)).
		Add(logging.Goal(name)).
		Msg("plan completed")

	a.plan = nil
	a.currentAction = nil
	a.currentGoal = nil
	a.transition(ctx, agent.StateIdle, "plan completed")
	a.think(ctx)
}

// fail drops the plan after act could not run and replans in the same tick.
func (a *Agent) fail(ctx context.Context, act goap.Action, reason string) {
	a.record(ctx, event.TypeActionFailed, event.ActionPayload{
		Action:   act.Name(),
		Reason:   reason,
		Failures: act.Failures(),
	})
	a.metrics.RecordActionResult(ctx, a.id, act.Name(), false)
	logging.Info().
		Add(logging.AgentID(a.id)).
		Add(logging.Action(act.Name())).
		Add(logging.Reason(reason)).
		Msg("action failed, replanning")

	a.abandon()
	a.transition(ctx, agent.StateIdle, reason)
	a.think(ctx)
}

// Interrupt abandons the current plan and replans. A running action that
// is not interruptible refuses with ErrNotInterruptible. Interrupts are
// ignored while suspended.
func (a *Agent) Interrupt(ctx context.Context, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.disabled.Load() {
		return goap.ErrAgentDisabled
	}
	state := a.interp.State()
	if state != agent.StatePlanning && state != agent.StateExecuting {
		return nil
	}
	act := a.currentAction
	if act != nil && !act.Interruptible() {
		return ErrNotInterruptible
	}

	if act != nil {
		a.record(ctx, event.TypeActionInterrupted, event.ActionPayload{Action: act.Name(), Reason: reason})
	}
	a.abandon()
	a.transition(ctx, agent.StateIdle, "interrupted: "+reason)
	a.think(ctx)
	return nil
}

func (a *Agent) suspend(ctx context.Context, reason string) {
	a.abandon()
	a.transition(ctx, agent.StateSuspended, reason)
	a.record(ctx, event.TypeAgentSuspended, event.AgentSuspendedPayload{
		Reason: reason,
		Until:  a.throttle.SuspendedUntil(),
	})
	a.metrics.RecordSuspension(ctx, a.id)
	logging.Warn().
		Add(logging.AgentID(a.id)).
		Add(logging.Reason(reason)).
		Add(logging.Duration(a.throttle.Remaining())).
		Msg("planning suspended")
	a.runFallback()
}

func (a *Agent) resume(ctx context.Context) {
	a.transition(ctx, agent.StateIdle, "cooldown elapsed")
	a.record(ctx, event.TypeAgentResumed, struct{}{})
	logging.Info().
		Add(logging.AgentID(a.id)).
		Msg("planning resumed")
}

func (a *Agent) updateSensors(ctx context.Context) {
	for _, s := range a.Sensors() {
		err := a.guard.Update(ctx, s, a)
		switch {
		case err == nil:
		case errors.Is(err, resilience.ErrSensorSkipped):
			logging.Debug().
				Add(logging.AgentID(a.id)).
				Add(logging.Sensor(s.Name())).
				Msg("sensor skipped")
		default:
			a.metrics.RecordSensorFailure(ctx, a.id, s.Name())
			logging.Warn().
				Add(logging.AgentID(a.id)).
				Add(logging.Sensor(s.Name())).
				Add(logging.ErrorField(err)).
				Msg("sensor update failed")
		}
	}
}

// transition moves the state machine and reports the change. Invalid
// transitions are logged and leave the state unchanged.
func (a *Agent) transition(ctx context.Context, to agent.State, reason string) {
	from := a.interp.State()
	if from == to {
		return
	}
	if err := a.interp.Transition(to, reason); err != nil {
		logging.Error().
			Add(logging.AgentID(a.id)).
			Add(logging.FromState(from)).
			Add(logging.ToState(to)).
			Add(logging.ErrorField(err)).
			Msg("state transition refused")
		return
	}

	logging.Debug().
		Add(logging.AgentID(a.id)).
		Add(logging.FromState(from)).
		Add(logging.ToState(to)).
		Add(logging.Reason(reason)).
		Msg("state transition")
	a.record(ctx, event.TypeStateTransitioned, event.StateTransitionedPayload{From: from, To: to, Reason: reason})
	a.metrics.RecordStateTransition(ctx, a.id, string(from), string(to))
}

func (a *Agent) started(ctx context.Context) {
	payload := event.AgentStartedPayload{}
	for _, g := range a.Goals() {
		payload.Goals = append(payload.Goals, g.Name())
	}
	for _, act := range a.Actions() {
		payload.Actions = append(payload.Actions, act.Name())
	}
	for _, s := range a.Sensors() {
		payload.Sensors = append(payload.Sensors, s.Name())
	}
	a.record(ctx, event.TypeAgentStarted, payload)
}

func (a *Agent) record(ctx context.Context, typ event.Type, payload any) {
	a.recorder.Record(ctx, a.id, typ, a.now(), payload)
}

func (a *Agent) runFallback() {
	if _, err := a.fallback.Tick(); err != nil {
		logging.Debug().
			Add(logging.AgentID(a.id)).
			Add(logging.ErrorField(err)).
			Msg("fallback behavior failed")
	}
}

func (a *Agent) hasGoal(name string) bool {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	for _, g := range a.goals {
		if g.Name() == name {
			return true
		}
	}
	return false
}

func goalName(g goap.Goal) string {
	if g == nil {
		return ""
	}
	return g.Name()
}
