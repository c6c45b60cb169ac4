// Package resilience applies fortify patterns to the agent runtime: circuit
// breakers around sensors, retried recovery, a bulkhead over searches and
// rate-limited plan admission.
package resilience

import "time"

// Config configures the resilience patterns.
type Config struct {
	// SensorFailureThreshold is the number of consecutive sensor failures
	// before the sensor's breaker opens.
	SensorFailureThreshold int

	// SensorCooldown is how long an open sensor breaker stays open.
	SensorCooldown time.Duration

	// RecoveryAttempts is the number of reset attempts before an agent is
	// disabled.
	RecoveryAttempts int

	// RecoveryDelay is the initial delay between reset attempts.
	RecoveryDelay time.Duration

	// RecoveryBackoff is the exponential backoff multiplier.
	RecoveryBackoff float64

	// MaxConcurrentSearches caps searches running at the same time.
	MaxConcurrentSearches int

	// SearchesPerSecond caps plan admissions across all agents.
	SearchesPerSecond int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SensorFailureThreshold: 3,
		SensorCooldown:         5 * time.Second,
		RecoveryAttempts:       3,
		RecoveryDelay:          time.Millisecond,
		RecoveryBackoff:        2.0,
		MaxConcurrentSearches:  4,
		SearchesPerSecond:      200,
	}
}

// Option configures resilience patterns.
type Option func(*Config)

// WithSensorFailureThreshold sets the breaker threshold for sensors.
func WithSensorFailureThreshold(n int) Option {
	return func(c *Config) {
		c.SensorFailureThreshold = n
	}
}

// WithSensorCooldown sets the open duration of sensor breakers.
func WithSensorCooldown(d time.Duration) Option {
	return func(c *Config) {
		c.SensorCooldown = d
	}
}

// WithRecoveryAttempts sets the number of recovery attempts.
func WithRecoveryAttempts(n int) Option {
	return func(c *Config) {
		c.RecoveryAttempts = n
	}
}

// WithRecoveryDelay sets the initial recovery retry delay.
func WithRecoveryDelay(d time.Duration) Option {
	return func(c *Config) {
		c.RecoveryDelay = d
	}
}

// WithMaxConcurrentSearches sets the search bulkhead size.
func WithMaxConcurrentSearches(n int) Option {
	return func(c *Config) {
		c.MaxConcurrentSearches = n
	}
}

// WithSearchesPerSecond sets the admission rate.
func WithSearchesPerSecond(n int) Option {
	return func(c *Config) {
		c.SearchesPerSecond = n
	}
}

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// positive returns v, or def when v is not positive.
func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
