package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/infrastructure/inspector"
)

type inspectOptions struct {
	ticks  uint64
	format string
	agent  string
}

func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <scenario>",
		Short: "Dump agent state after a number of ticks",
		Long: `Run a scenario on the virtual clock and print every agent's memory,
goals, plan, running action and resilience counters.

Examples:
  # State right after the agents are built
  goap inspect combat.yaml

  # State after 5 ticks as JSON
  goap inspect combat.yaml --ticks 5 --format json

  # Lifecycle diagram as Graphviz DOT
  goap inspect combat.yaml --ticks 20 --format dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.ticks, "ticks", 0, "Ticks to run before inspecting")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json, mermaid or dot")
	cmd.Flags().StringVar(&opts.agent, "agent", "", "Only show the agent with this ID")

	return cmd
}

func (a *App) inspect(ctx context.Context, path string, opts *inspectOptions) (err error) {
	format, err := inspector.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	env, err := a.openEnvironment(path, envOptions{journal: "none"})
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, env.Close(context.Background())) }()

	w, err := env.build(worldOptions{ticks: opts.ticks})
	if err != nil {
		return err
	}
	for w.scheduler.Tick() < opts.ticks {
		// Agent tick errors are reported through their snapshots.
		if err := w.scheduler.Step(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}

	agents := w.current()
	if opts.agent != "" {
		agents = filterAgents(agents, opts.agent)
		if len(agents) == 0 {
			return fmt.Errorf("unknown agent %q", opts.agent)
		}
	}

	report := inspector.Collect(w.scheduler.Tick(), w.now(), agents...)
	report.Scenario = env.scenario.Name
	metrics := w.manager.Metrics()
	report.Coordinator = &metrics
	return inspector.Render(a.stdout, report, format)
}

func filterAgents(agents []*application.Agent, id string) []*application.Agent {
	for _, ag := range agents {
		if ag.ID() == id {
			return []*application.Agent{ag}
		}
	}
	return nil
}
