package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/domain/goap"
)

type planOptions struct {
	goal       string
	jsonOutput bool
}

// planResult is one search outcome.
type planResult struct {
	Agent      string   `json:"agent"`
	Goal       string   `json:"goal"`
	Priority   float64  `json:"priority"`
	Satisfied  bool     `json:"satisfied,omitempty"`
	Found      bool     `json:"found"`
	Actions    []string `json:"actions,omitempty"`
	Cost       float64  `json:"cost,omitempty"`
	Iterations int      `json:"iterations,omitempty"`
}

func (a *App) newPlanCmd() *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan <scenario>",
		Short: "Search a plan for every agent goal",
		Long: `Build the scenario's agents and run one A* search per goal from each
agent's initial memory, without executing anything.

Examples:
  # Plan every goal
  goap plan combat.yaml

  # Plan a single goal and print JSON
  goap plan combat.yaml --goal KillTarget --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.planScenario(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.goal, "goal", "", "Only plan the named goal")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func (a *App) planScenario(ctx context.Context, path string, opts *planOptions) (err error) {
	env, err := a.openEnvironment(path, envOptions{journal: "none"})
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, env.Close(context.Background())) }()

	agents, err := env.scenario.Build()
	if err != nil {
		return err
	}

	searcher := env.searcher()
	var results []planResult
	for _, ag := range agents {
		for _, g := range sortedGoals(ag) {
			if opts.goal != "" && g.Name() != opts.goal {
				continue
			}
			r, err := search(ctx, searcher, ag, g)
			if err != nil {
				return err
			}
			results = append(results, r)
		}
	}
	if opts.goal != "" && len(results) == 0 {
		return fmt.Errorf("no agent has goal %q", opts.goal)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		fmt.Fprintf(a.stdout, "%s/%s (priority %g): ", r.Agent, r.Goal, r.Priority)
		switch {
		case r.Satisfied:
			fmt.Fprintln(a.stdout, "already satisfied")
		case !r.Found:
			fmt.Fprintln(a.stdout, "no plan")
		default:
			fmt.Fprintf(a.stdout, "%s (cost %g, %d iterations)\n", strings.Join(r.Actions, " -> "), r.Cost, r.Iterations)
		}
	}
	return nil
}

func search(ctx context.Context, searcher goap.Searcher, ag *application.Agent, g goap.Goal) (planResult, error) {
	memory := ag.Memory()
	r := planResult{
		Agent:     ag.ID(),
		Goal:      g.Name(),
		Priority:  g.Priority(memory),
		Satisfied: g.IsSatisfied(memory),
	}
	if r.Satisfied {
		r.Found = true
		return r, nil
	}

	plan, err := searcher.Plan(ctx, ag, memory.Clone(), g.GoalState(), ag.Actions())
	if errors.Is(err, goap.ErrNoPlan) {
		return r, nil
	}
	if err != nil {
		return r, fmt.Errorf("%s/%s: %w", ag.ID(), g.Name(), err)
	}
	r.Found = true
	r.Actions = plan.Names()
	r.Cost = plan.Cost
	r.Iterations = plan.Stats.Iterations
	return r, nil
}

// sortedGoals orders goals by descending priority, keeping registration
// order for ties.
func sortedGoals(ag *application.Agent) []goap.Goal {
	goals := ag.Goals()
	memory := ag.Memory()
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].Priority(memory) > goals[j].Priority(memory)
	})
	return goals
}
