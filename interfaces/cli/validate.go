package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/goap-go/infrastructure/scenario"
)

func (a *App) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Validate a scenario file",
		Long: `Validate a scenario file for correctness.

This command checks:
  - File format (YAML or JSON) and unknown fields
  - Runtime configuration values
  - Key kinds and the values assigned to them
  - Action, goal and sensor definitions
  - Expressions and fallback references

Examples:
  goap validate combat.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateScenario(args[0])
		},
	}
}

func (a *App) validateScenario(path string) error {
	s, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Scenario is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", s.Name)
	fmt.Fprintf(a.stdout, "  Seed: %d\n", s.Seed)
	fmt.Fprintf(a.stdout, "  Keys: %d\n", len(s.Keys))

	fmt.Fprintf(a.stdout, "\nAgents:\n")
	for _, spec := range s.Agents {
		count := max(spec.Count, 1)
		fmt.Fprintf(a.stdout, "  - %s (x%d): %d actions, %d goals, %d sensors\n",
			spec.ID, count, len(spec.Actions), len(spec.Goals), len(spec.Sensors))
	}

	rt := s.Runtime
	fmt.Fprintf(a.stdout, "\nRuntime:\n")
	fmt.Fprintf(a.stdout, "  Planner: %d iterations, min cost %g\n", rt.Planner.MaxIterations, rt.Planner.MinCost)
	fmt.Fprintf(a.stdout, "  Throttle: %d replans per %s, cooldown %s\n",
		rt.Throttle.MaxReplans, rt.Throttle.Window.Duration(), rt.Throttle.Cooldown.Duration())
	fmt.Fprintf(a.stdout, "  Journal: %s\n", rt.Journal.Backend)
	return nil
}
