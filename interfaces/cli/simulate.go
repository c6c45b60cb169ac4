package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cfgloader "github.com/felixgeelhaar/goap-go/infrastructure/config"
	"github.com/felixgeelhaar/goap-go/infrastructure/inspector"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
	"github.com/felixgeelhaar/goap-go/infrastructure/scenario"
)

type simulateOptions struct {
	ticks    uint64
	interval time.Duration
	journal  string
	realtime bool
	watch    bool
	verbose  bool
}

func (a *App) newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Run a scenario's agents",
		Long: `Run every agent in a scenario through the think cycle.

By default the run uses a virtual clock: ticks execute back to back and
plans requested on one tick are delivered on the next, so runs are fast
and repeatable. With --realtime the scheduler waits on the wall clock and
the coordinator searches in background workers.

Examples:
  # Run 50 virtual ticks
  goap simulate combat.yaml --ticks 50

  # Record lifecycle events in SQLite
  goap simulate combat.yaml --journal sqlite

  # Run on the wall clock and rebuild agents when the file changes
  goap simulate combat.yaml --realtime --ticks 0 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.simulate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.ticks, "ticks", 100, "Number of ticks to run (0 runs until interrupted)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Tick interval (overrides scenario)")
	cmd.Flags().StringVar(&opts.journal, "journal", "", "Journal backend: none, memory, sqlite or redis (overrides scenario)")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Tick on the wall clock with background planner workers")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rebuild agents when the scenario file changes (requires --realtime)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every tick")

	return cmd
}

func (a *App) simulate(ctx context.Context, path string, opts *simulateOptions) (err error) {
	if opts.watch && !opts.realtime {
		return errors.New("--watch requires --realtime")
	}
	if opts.ticks == 0 && !opts.realtime {
		return errors.New("--ticks 0 requires --realtime")
	}

	env, err := a.openEnvironment(path, envOptions{journal: opts.journal})
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, env.Close(context.Background())) }()

	var w *world
	wopts := worldOptions{
		ticks:    opts.ticks,
		interval: opts.interval,
		realtime: opts.realtime,
	}
	if opts.verbose {
		wopts.onTick = func(tick uint64) { a.printTick(tick, w) }
	}
	w, err = env.build(wopts)
	if err != nil {
		return err
	}

	if opts.watch {
		watcher, err := cfgloader.NewWatcher(path, func(path string) { a.reload(env, w, path) })
		if err != nil {
			return err
		}
		watchCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := watcher.Run(watchCtx); err != nil {
				logging.Warn().Add(logging.Component("watcher")).Add(logging.ErrorField(err)).Msg("watcher stopped")
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	runErr := w.run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	report := inspector.Collect(w.scheduler.Tick(), w.now(), w.current()...)
	report.Scenario = env.scenario.Name
	metrics := w.manager.Metrics()
	report.Coordinator = &metrics
	if err := inspector.Render(a.stdout, report, inspector.FormatText); err != nil {
		return err
	}
	return a.printJournal(ctx, env)
}

func (a *App) printTick(tick uint64, w *world) {
	for _, ag := range w.current() {
		line := fmt.Sprintf("%4d  %-12s %-10s", tick, ag.ID(), ag.State())
		if g := ag.CurrentGoal(); g != nil {
			line += " goal=" + g.Name()
		}
		if act := ag.CurrentAction(); act != nil {
			line += " action=" + act.Name()
		}
		fmt.Fprintln(a.stdout, line)
	}
}

// reload rebuilds the world's agents from the changed scenario. An invalid
// file keeps the running agents.
func (a *App) reload(env *environment, w *world, path string) {
	s, err := scenario.Load(path)
	if err != nil {
		logging.Warn().
			Add(logging.Component("cli")).
			Add(logging.ErrorField(err)).
			Msg("scenario reload rejected")
		return
	}

	next := *env
	next.scenario = s
	agents, err := next.buildAgents(w.manager, w.now)
	if err != nil {
		logging.Warn().
			Add(logging.Component("cli")).
			Add(logging.ErrorField(err)).
			Msg("scenario rebuild failed")
		return
	}
	w.replace(agents)

	logging.Info().
		Add(logging.Component("cli")).
		Add(logging.Str("scenario", s.Name)).
		Add(logging.Int("agents", len(agents))).
		Msg("scenario reloaded")
}

func (a *App) printJournal(ctx context.Context, env *environment) error {
	if env.journal == nil {
		return nil
	}
	ids, err := env.journal.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	fmt.Fprintf(a.stdout, "\njournal (%s)\n", env.scenario.Runtime.Journal.Backend)
	for _, id := range ids {
		events, err := env.journal.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read journal: %w", err)
		}
		fmt.Fprintf(a.stdout, "  %s: %d events\n", id, len(events))
	}
	return nil
}
