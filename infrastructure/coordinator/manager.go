// Package coordinator provides the shared planning manager. Agents submit
// plan requests without blocking; workers run the searches under a
// concurrency cap and deliver results through callbacks on a later tick.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/telemetry"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
	"github.com/felixgeelhaar/goap-go/infrastructure/observability"
	"github.com/felixgeelhaar/goap-go/infrastructure/planner"
	"github.com/felixgeelhaar/goap-go/infrastructure/resilience"
	infratel "github.com/felixgeelhaar/goap-go/infrastructure/telemetry"
)

// Config configures the manager.
type Config struct {
	// Workers is the number of goroutines started by Start.
	Workers int

	// QueueSize bounds the number of waiting requests.
	QueueSize int

	// MaxConcurrent caps searches running at the same time.
	MaxConcurrent int

	// RequestsPerSecond caps how fast searches are admitted.
	RequestsPerSecond int
}

// DefaultConfig returns a default manager configuration.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		QueueSize:         256,
		MaxConcurrent:     2,
		RequestsPerSecond: 200,
	}
}

// Option configures the manager.
type Option func(*Manager)

// WithSearcher sets the search implementation.
func WithSearcher(s goap.Searcher) Option {
	return func(m *Manager) {
		m.searcher = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics infratel.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTracer wraps every dequeued search in a span.
func WithTracer(t telemetry.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

// WithClock sets the time source for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithPollInterval sets how long a worker backs off after an admission
// refusal.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// Manager is the process-wide planning coordinator.
type Manager struct {
	config       Config
	searcher     goap.Searcher
	limiter      *resilience.SearchLimiter
	queue        *requestQueue
	metrics      infratel.Metrics
	tracer       telemetry.Tracer
	now          func() time.Time
	pollInterval time.Duration
	notify       chan struct{}

	mu      sync.Mutex
	running bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stats   Metrics
}

// New creates a manager.
func New(config Config, opts ...Option) *Manager {
	def := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = config.Workers
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = def.RequestsPerSecond
	}

	m := &Manager{
		config: config,
		limiter: resilience.NewSearchLimiter(resilience.NewConfig(
			resilience.WithMaxConcurrentSearches(config.MaxConcurrent),
			resilience.WithSearchesPerSecond(config.RequestsPerSecond),
		)),
		queue:        newRequestQueue(config.QueueSize),
		metrics:      infratel.NoopMetricsProvider{},
		now:          time.Now,
		pollInterval: 10 * time.Millisecond,
		notify:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.searcher == nil {
		m.searcher = planner.New()
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.config }

// RequestPlan queues a search for goal from the agent's current memory. It
// never blocks. The start state and action set are captured now.
func (m *Manager) RequestPlan(agent goap.Requester, goal goap.Goal, callback goap.PlanCallback) error {
	if agent == nil {
		return ErrNilAgent
	}
	if goal == nil {
		return goap.ErrNilGoal
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrManagerClosed
	}

	memory := agent.Memory()
	req := &Request{
		ID:        uuid.NewString(),
		Agent:     agent,
		Goal:      goal,
		Priority:  goal.Priority(memory),
		Start:     memory.Clone(),
		Actions:   agent.Actions(),
		Callback:  callback,
		CreatedAt: m.now(),
	}

	superseded, err := m.queue.push(req)
	if err != nil {
		m.mu.Lock()
		m.stats.Rejected++
		m.mu.Unlock()
		return fmt.Errorf("%w: agent %s", err, agent.ID())
	}

	ctx := context.Background()
	m.metrics.RecordPlanRequest(ctx, agent.ID(), goal.Name())

	m.mu.Lock()
	m.stats.Requested++
	if superseded != nil {
		m.stats.Superseded++
	}
	m.mu.Unlock()

	if superseded == nil {
		m.metrics.AddQueueDepth(ctx, 1)
	}

	logging.Debug().
		Add(logging.Component("coordinator")).
		Add(logging.AgentID(agent.ID())).
		Add(logging.Goal(goal.Name())).
		Add(logging.RequestID(req.ID)).
		Add(logging.Bool("superseded", superseded != nil)).
		Msg("plan requested")

	m.signal()
	return nil
}

func (m *Manager) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Start launches the worker goroutines.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.running = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	for i := 0; i < m.config.Workers; i++ {
		m.wg.Add(1)
		go m.workLoop(ctx)
	}
	return nil
}

// Stop stops the workers and closes the manager. Queued requests are
// dropped without callbacks.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	cancel := m.cancel
	m.running = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	dropped := m.queue.clear()
	if len(dropped) > 0 {
		m.mu.Lock()
		m.stats.Dropped += int64(len(dropped))
		m.mu.Unlock()
		m.metrics.AddQueueDepth(context.Background(), -int64(len(dropped)))
	}
}

// IsRunning reports whether workers are running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Pending returns the number of queued requests.
func (m *Manager) Pending() int { return m.queue.len() }

// Drain processes up to limit queued requests on the calling goroutine and
// returns how many were processed. limit <= 0 drains the whole queue. Drain
// stops early when admission or the bulkhead refuses; the rest stays queued.
func (m *Manager) Drain(ctx context.Context, limit int) int {
	processed := 0
	for limit <= 0 || processed < limit {
		if ctx.Err() != nil {
			break
		}
		req := m.queue.pop()
		if req == nil {
			break
		}
		if !m.limiter.Admit(ctx) {
			m.putBack(req)
			break
		}
		if !m.process(ctx, req) {
			break
		}
		processed++
	}
	return processed
}

func (m *Manager) workLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		req := m.queue.pop()
		if req == nil {
			select {
			case <-ctx.Done():
				return
			case <-m.notify:
				continue
			}
		}
		if m.queue.len() > 0 {
			m.signal()
		}

		if !m.limiter.Admit(ctx) {
			m.putBack(req)
			if !m.backoff(ctx) {
				return
			}
			continue
		}
		if !m.process(ctx, req) && !m.backoff(ctx) {
			return
		}
	}
}

// backoff waits one poll interval and reports false if ctx ended first.
func (m *Manager) backoff(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.pollInterval):
		return true
	}
}

// putBack returns a popped request to the queue, or drops it if the agent
// has queued a newer one meanwhile.
func (m *Manager) putBack(req *Request) {
	if m.queue.requeue(req) {
		return
	}
	m.dequeued()
	m.mu.Lock()
	m.stats.Superseded++
	m.mu.Unlock()
}

func (m *Manager) dequeued() {
	m.metrics.AddQueueDepth(context.Background(), -1)
}

// process runs one search and delivers the result. It reports false when
// the bulkhead refused the search and the request went back to the queue.
func (m *Manager) process(ctx context.Context, req *Request) bool {
	agentID := req.Agent.ID()

	if !req.Agent.Valid() {
		m.dequeued()
		m.drop(req, "target invalid before search")
		return true
	}

	spanCtx, tr := observability.StartSearch(ctx, m.tracer, observability.SearchRequest{
		ID:       req.ID,
		AgentID:  agentID,
		Goal:     req.Goal.Name(),
		Priority: req.Priority,
		Waited:   m.now().Sub(req.CreatedAt),
	})
	began := time.Now()
	plan, err := m.limiter.Execute(spanCtx, func(ctx context.Context) (*goap.Plan, error) {
		return m.searcher.Plan(ctx, req.Agent, req.Start, req.Goal.GoalState(), req.Actions)
	})
	tr.Finish(plan, err)
	if errors.Is(err, resilience.ErrSearchRejected) {
		m.putBack(req)
		return false
	}
	m.dequeued()
	if err != nil && ctx.Err() != nil {
		m.drop(req, "manager stopped")
		return true
	}
	elapsed := time.Since(began)

	found := err == nil && plan != nil
	if found {
		plan.Goal = req.Goal
		m.metrics.RecordPlanResult(ctx, agentID, req.Goal.Name(), true, plan.Len(), plan.Stats.Iterations, elapsed)
	} else {
		plan = nil
		m.metrics.RecordPlanResult(ctx, agentID, req.Goal.Name(), false, 0, 0, elapsed)
	}

	m.mu.Lock()
	m.stats.TotalDuration += elapsed
	if found {
		m.stats.Completed++
	} else {
		m.stats.Failed++
	}
	m.mu.Unlock()

	var ev *logging.LogEvent
	if found {
		ev = logging.Debug()
	} else {
		ev = logging.Info().Add(logging.ErrorField(err))
	}
	ev.Add(logging.Component("coordinator")).
		Add(logging.AgentID(agentID)).
		Add(logging.Goal(req.Goal.Name())).
		Add(logging.RequestID(req.ID)).
		Add(logging.PlanLength(plan.Len())).
		Add(logging.DurationNs(elapsed)).
		Msg("search finished")

	if !req.Agent.Valid() {
		m.drop(req, "target invalid after search")
		return true
	}
	m.deliver(req, plan)
	return true
}

func (m *Manager) drop(req *Request, reason string) {
	m.mu.Lock()
	m.stats.Dropped++
	m.mu.Unlock()

	logging.Debug().
		Add(logging.Component("coordinator")).
		Add(logging.AgentID(req.Agent.ID())).
		Add(logging.RequestID(req.ID)).
		Add(logging.Reason(reason)).
		Msg("plan request dropped")
}

func (m *Manager) deliver(req *Request, plan *goap.Plan) {
	if req.Callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Add(logging.Component("coordinator")).
				Add(logging.AgentID(req.Agent.ID())).
				Add(logging.RequestID(req.ID)).
				Add(logging.Str("panic", fmt.Sprint(r))).
				Msg("plan callback panicked")
		}
	}()
	req.Callback(plan)
}

// Metrics returns a snapshot of the manager's counters.
func (m *Manager) Metrics() Metrics {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()
	stats.QueueDepth = m.queue.len()
	return stats
}

var _ goap.Coordinator = (*Manager)(nil)
