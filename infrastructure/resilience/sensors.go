package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/felixgeelhaar/goap-go/domain/goap"
)

// ErrSensorSkipped indicates a sensor was not run because its breaker is open.
var ErrSensorSkipped = errors.New("resilience: sensor skipped, breaker open")

// ErrSensorPanic indicates a sensor panicked during Update.
var ErrSensorPanic = errors.New("resilience: sensor panicked")

// SensorGuard runs sensor updates behind one circuit breaker per sensor
// name, so a persistently failing sensor stops being polled for a while
// instead of failing every tick.
type SensorGuard struct {
	config   Config
	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker[struct{}]
}

// NewSensorGuard creates a sensor guard.
func NewSensorGuard(config Config) *SensorGuard {
	return &SensorGuard{
		config:   config,
		breakers: make(map[string]circuitbreaker.CircuitBreaker[struct{}]),
	}
}

func (g *SensorGuard) breaker(name string) circuitbreaker.CircuitBreaker[struct{}] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[name]; ok {
		return cb
	}

	threshold := positive(g.config.SensorFailureThreshold, 3)
	cb := circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    g.config.SensorCooldown,
		Timeout:     g.config.SensorCooldown,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is positive
		},
	})
	g.breakers[name] = cb
	return cb
}

// Update runs sensor.Update for agent. Panics are converted to
// ErrSensorPanic. When the breaker is open the sensor is not called and
// ErrSensorSkipped is returned.
func (g *SensorGuard) Update(ctx context.Context, sensor goap.Sensor, agent goap.Agent) error {
	ran := false
	_, err := g.breaker(sensor.Name()).Execute(ctx, func(context.Context) (struct{}, error) {
		ran = true
		return struct{}{}, safeUpdate(sensor, agent)
	})
	if err != nil && !ran {
		return errors.Join(ErrSensorSkipped, err)
	}
	return err
}

// State returns the breaker state for a sensor, "closed" if never used.
func (g *SensorGuard) State(name string) string {
	g.mu.Lock()
	cb, ok := g.breakers[name]
	g.mu.Unlock()
	if !ok {
		return "closed"
	}
	return cb.State().String()
}

// Forget drops the breaker for a sensor that has been removed.
func (g *SensorGuard) Forget(name string) {
	g.mu.Lock()
	delete(g.breakers, name)
	g.mu.Unlock()
}

func safeUpdate(sensor goap.Sensor, agent goap.Agent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrSensorPanic, sensor.Name(), r)
		}
	}()
	return sensor.Update(agent)
}
