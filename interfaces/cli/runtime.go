package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/domain/config"
	"github.com/felixgeelhaar/goap-go/infrastructure/coordinator"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
	"github.com/felixgeelhaar/goap-go/infrastructure/observability"
	"github.com/felixgeelhaar/goap-go/infrastructure/planner"
	"github.com/felixgeelhaar/goap-go/infrastructure/scenario"
	"github.com/felixgeelhaar/goap-go/infrastructure/scheduler"
	"github.com/felixgeelhaar/goap-go/infrastructure/storage"
)

// epoch is where virtual clocks start, so simulated runs print the same
// timestamps every time.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// environment holds the collaborators built from a scenario's runtime
// configuration.
type environment struct {
	scenario *scenario.Scenario
	provider *observability.Provider
	journal  storage.Journal
}

// envOptions overrides parts of the scenario's runtime configuration.
type envOptions struct {
	journal string
}

func (a *App) openEnvironment(path string, opts envOptions) (*environment, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	cfg := &s.Runtime
	if opts.journal != "" {
		cfg.Journal.Backend = opts.journal
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})

	provider, err := observability.New(telemetryOptions(cfg.Telemetry, a.stderr)...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	journal, err := storage.OpenJournal(cfg.Journal)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	return &environment{scenario: s, provider: provider, journal: journal}, nil
}

func telemetryOptions(cfg config.TelemetryConfig, w io.Writer) []observability.Option {
	opts := []observability.Option{observability.WithServiceVersion(Version)}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.SampleRate > 0 {
		opts = append(opts, observability.WithSampleRate(cfg.SampleRate))
	}

	switch observability.ExporterType(cfg.Tracing) {
	case observability.ExporterStdout:
		opts = append(opts, observability.WithStdoutTracing(w))
	case observability.ExporterOTLP:
		opts = append(opts, observability.WithTracing(observability.ExporterOTLP, cfg.Endpoint))
		if cfg.Insecure {
			opts = append(opts, observability.WithTracingInsecure())
		}
	}

	if cfg.Metrics {
		opts = append(opts, observability.WithMetrics())
	}
	return opts
}

// searcher returns a planner configured by the scenario and traced by the
// environment's provider.
func (e *environment) searcher() *planner.Planner {
	return scenario.NewPlanner(e.scenario.Runtime, planner.WithTracer(e.provider.Tracer()))
}

func (e *environment) Close(ctx context.Context) error {
	var errs []error
	if e.journal != nil {
		errs = append(errs, e.journal.Close())
	}
	errs = append(errs, e.provider.Shutdown(ctx))
	return errors.Join(errs...)
}

// world is a built scenario ready to run.
type world struct {
	mu        sync.Mutex
	agents    []*application.Agent
	manager   *coordinator.Manager
	scheduler *scheduler.Scheduler
	clock     *scheduler.VirtualClock
}

// worldOptions selects how a world is driven.
type worldOptions struct {
	ticks    uint64
	interval time.Duration
	realtime bool
	onTick   func(tick uint64)
}

// build creates the scenario's agents around one shared coordinator. A
// virtual world drains the coordinator after every step; a realtime world
// leaves delivery to the coordinator's workers.
func (e *environment) build(opts worldOptions) (*world, error) {
	cfg := e.scenario.Runtime
	metrics := e.provider.Metrics()

	w := &world{}
	now := time.Now
	if !opts.realtime {
		w.clock = scheduler.NewVirtualClock(epoch)
		now = w.clock.Now
	}

	w.manager = coordinator.New(coordinator.Config{
		Workers:           cfg.Coordinator.Workers,
		QueueSize:         cfg.Coordinator.QueueSize,
		MaxConcurrent:     cfg.Coordinator.MaxConcurrent,
		RequestsPerSecond: cfg.Coordinator.RequestsPerSecond,
	},
		coordinator.WithSearcher(e.searcher()),
		coordinator.WithMetrics(metrics),
		coordinator.WithTracer(e.provider.Tracer()),
		coordinator.WithClock(now),
	)

	agents, err := e.buildAgents(w.manager, now)
	if err != nil {
		return nil, err
	}
	w.agents = agents

	interval := opts.interval
	if interval <= 0 {
		interval = cfg.Scheduler.Interval.Duration()
	}
	schedOpts := []scheduler.Option{
		scheduler.WithInterval(interval),
		scheduler.WithMaxTicks(opts.ticks),
	}
	if w.clock != nil {
		schedOpts = append(schedOpts, scheduler.WithVirtualClock(w.clock), scheduler.WithDrainer(w.manager))
	}
	if opts.onTick != nil {
		schedOpts = append(schedOpts, scheduler.WithOnTick(opts.onTick))
	}
	w.scheduler = scheduler.New(schedOpts...)
	for _, ag := range agents {
		w.scheduler.Add(ag)
	}
	return w, nil
}

func (e *environment) buildAgents(manager *coordinator.Manager, now func() time.Time) ([]*application.Agent, error) {
	return e.scenario.Build(
		application.WithCoordinator(manager),
		application.WithClock(now),
		application.WithJournal(e.journal),
		application.WithMetrics(e.provider.Metrics()),
		application.WithOnDisabled(func(a *application.Agent, err error) {
			logging.Error().
				Add(logging.AgentID(a.ID())).
				Add(logging.ErrorField(err)).
				Msg("agent disabled")
		}),
	)
}

// run drives the world until its tick limit or ctx ends. Realtime worlds
// start the coordinator's workers for the duration of the run.
func (w *world) run(ctx context.Context) error {
	if w.clock == nil {
		if err := w.manager.Start(ctx); err != nil {
			return err
		}
		defer w.manager.Stop()
	}
	return w.scheduler.Run(ctx)
}

func (w *world) now() time.Time {
	if w.clock != nil {
		return w.clock.Now()
	}
	return time.Now()
}

func (w *world) current() []*application.Agent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*application.Agent(nil), w.agents...)
}

// replace swaps the world's agents for fresh ones.
func (w *world) replace(agents []*application.Agent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, old := range w.agents {
		w.scheduler.Remove(old.ID())
		old.Close()
	}
	w.agents = agents
	for _, ag := range agents {
		w.scheduler.Add(ag)
	}
}
