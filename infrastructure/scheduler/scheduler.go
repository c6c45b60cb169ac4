// Package scheduler drives agent ticks at a fixed interval and hands queued
// plan requests to the coordinator between ticks.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
)

// DefaultInterval is the time between ticks.
const DefaultInterval = 500 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("scheduler: already running")

// Agent is anything the scheduler can tick.
type Agent interface {
	ID() string
	Tick(ctx context.Context) error
}

// Drainer processes queued plan requests on the calling goroutine.
type Drainer interface {
	Drain(ctx context.Context, limit int) int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick interval. Zero runs ticks back to back.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithDrainer drains d after every tick, so plans requested on tick N are
// delivered by tick N+1 without background workers.
func WithDrainer(d Drainer) Option {
	return func(s *Scheduler) {
		s.drainer = d
	}
}

// WithVirtualClock advances clock by the interval on every step. Run then
// steps back to back instead of waiting on the wall clock.
func WithVirtualClock(clock *VirtualClock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithMaxTicks makes Run return after n steps. Zero runs until stopped.
func WithMaxTicks(n uint64) Option {
	return func(s *Scheduler) {
		s.maxTicks = n
	}
}

// WithOnTick registers a hook called after every step.
func WithOnTick(fn func(tick uint64)) Option {
	return func(s *Scheduler) {
		s.onTick = fn
	}
}

// Scheduler ticks every registered agent once per interval. Agents are
// ticked in registration order on a single goroutine, so one agent's
// sensors and think cycle never overlap.
type Scheduler struct {
	interval time.Duration
	drainer  Drainer
	clock    *VirtualClock
	maxTicks uint64
	onTick   func(tick uint64)

	mu     sync.RWMutex
	agents []Agent

	tick     atomic.Uint64
	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: DefaultInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers agents.
func (s *Scheduler) Add(agents ...Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = append(s.agents, agents...)
}

// Remove unregisters the agent with id.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.agents {
		if a.ID() == id {
			s.agents = append(s.agents[:i:i], s.agents[i+1:]...)
			return true
		}
	}
	return false
}

// Agents returns the registered agents.
func (s *Scheduler) Agents() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Agent(nil), s.agents...)
}

// Tick returns the number of completed steps.
func (s *Scheduler) Tick() uint64 { return s.tick.Load() }

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Step ticks every agent once and then drains the coordinator. Agent
// errors are joined and returned; every agent is ticked regardless.
func (s *Scheduler) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.clock != nil {
		s.clock.Advance(s.interval)
	}
	tick := s.tick.Add(1)

	var errs []error
	for _, a := range s.Agents() {
		if err := a.Tick(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	drained := 0
	if s.drainer != nil {
		drained = s.drainer.Drain(ctx, 0)
	}

	logging.Trace().
		Add(logging.Component("scheduler")).
		Add(logging.Tick(int64(tick))). // #nosec G115 -- tick counts stay far below MaxInt64
		Add(logging.Int("drained", drained)).
		Msg("step")

	if s.onTick != nil {
		s.onTick(tick)
	}
	return errors.Join(errs...)
}

// Run steps until ctx ends, Stop is called or the tick limit is reached.
// It returns ctx.Err() when the context ended the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	logging.Info().
		Add(logging.Component("scheduler")).
		Add(logging.Duration(s.interval)).
		Add(logging.Int("agents", len(s.Agents()))).
		Msg("scheduler started")
	defer func() {
		logging.Info().
			Add(logging.Component("scheduler")).
			Add(logging.Tick(int64(s.tick.Load()))). // #nosec G115 -- see Step
			Msg("scheduler stopped")
	}()

	var ticks <-chan time.Time
	if s.interval > 0 && s.clock == nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		if s.maxTicks > 0 && s.tick.Load() >= s.maxTicks {
			return nil
		}

		if err := s.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Debug().
				Add(logging.Component("scheduler")).
				Add(logging.ErrorField(err)).
				Msg("agent tick failed")
		}

		if ticks == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.stop:
				return nil
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case <-ticks:
		}
	}
}

// Stop ends Run after the current step.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// IsRunning reports whether Run is active.
func (s *Scheduler) IsRunning() bool { return s.running.Load() }
