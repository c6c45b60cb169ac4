package application

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	infratel "github.com/felixgeelhaar/goap-go/infrastructure/telemetry"
)

// inlineCoordinator searches on the requesting goroutine. The agent still
// reads the result from its inbox on the next tick, so timing matches a
// shared coordinator that answers immediately.
type inlineCoordinator struct {
	searcher goap.Searcher
	metrics  infratel.Metrics
}

func (c *inlineCoordinator) RequestPlan(agent goap.Requester, goal goap.Goal, callback goap.PlanCallback) error {
	if goal == nil {
		return goap.ErrNilGoal
	}

	ctx := context.Background()
	c.metrics.RecordPlanRequest(ctx, agent.ID(), goal.Name())

	began := time.Now()
	plan, err := c.searcher.Plan(ctx, agent, agent.Memory().Clone(), goal.GoalState(), agent.Actions())
	if err != nil {
		if !errors.Is(err, goap.ErrNoPlan) {
			return err
		}
		plan = nil
	}
	if plan != nil {
		plan.Goal = goal
		c.metrics.RecordPlanResult(ctx, agent.ID(), goal.Name(), true, plan.Len(), plan.Stats.Iterations, time.Since(began))
	} else {
		c.metrics.RecordPlanResult(ctx, agent.ID(), goal.Name(), false, 0, 0, time.Since(began))
	}

	if agent.Valid() {
		callback(plan)
	}
	return nil
}
