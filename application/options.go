package application

import (
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/felixgeelhaar/goap-go/domain/event"
	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/resilience"
	infratel "github.com/felixgeelhaar/goap-go/infrastructure/telemetry"
)

// DefaultMaxPlanWait is how many ticks an agent waits for a plan before it
// gives the request up.
const DefaultMaxPlanWait = 20

// Option configures an Agent.
type Option func(*Agent)

// WithCoordinator routes plan requests through a shared coordinator.
// Without one the agent searches inline and picks the result up next tick.
func WithCoordinator(c goap.Coordinator) Option {
	return func(a *Agent) {
		a.coordinator = c
	}
}

// WithSearcher sets the searcher used when no coordinator is configured.
func WithSearcher(s goap.Searcher) Option {
	return func(a *Agent) {
		a.searcher = s
	}
}

// WithMemory sets the initial world state.
func WithMemory(s *worldstate.State) Option {
	return func(a *Agent) {
		if s != nil {
			a.memory.Store(s)
		}
	}
}

// WithClock sets the time source for throttling and journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		if now != nil {
			a.now = now
		}
	}
}

// WithThrottle configures replanning storm protection.
func WithThrottle(cfg resilience.ThrottleConfig) Option {
	return func(a *Agent) {
		a.throttleConfig = cfg
	}
}

// WithResilience configures sensor isolation and recovery.
func WithResilience(cfg resilience.Config) Option {
	return func(a *Agent) {
		a.resilienceConfig = cfg
	}
}

// WithFallback sets the behavior ticked while the agent is suspended,
// disabled, or has no plan.
func WithFallback(node bt.Node) Option {
	return func(a *Agent) {
		if node != nil {
			a.fallback = node
		}
	}
}

// WithJournal records lifecycle events to store.
func WithJournal(store event.Store) Option {
	return func(a *Agent) {
		a.recorder = NewRecorder(store)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m infratel.Metrics) Option {
	return func(a *Agent) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithOnDisabled registers a hook called once when the agent disables itself.
func WithOnDisabled(fn func(a *Agent, err error)) Option {
	return func(a *Agent) {
		a.onDisabled = fn
	}
}

// WithMaxPlanWait bounds how many ticks a plan request may stay unanswered.
func WithMaxPlanWait(ticks int) Option {
	return func(a *Agent) {
		if ticks > 0 {
			a.maxPlanWait = ticks
		}
	}
}

// AllowNoSensors stops an empty sensor set from being treated as corruption.
func AllowNoSensors() Option {
	return func(a *Agent) {
		a.requireSensors = false
	}
}
