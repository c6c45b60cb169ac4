// Package config provides the runtime configuration model for agents, the
// planner coordinator and their supporting infrastructure.
package config

import "time"

// RuntimeConfig is the complete runtime configuration.
type RuntimeConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`

	// Logging configures the global logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Planner configures A* search limits.
	Planner PlannerConfig `json:"planner,omitempty" yaml:"planner,omitempty"`
	// Coordinator configures the shared planner manager.
	Coordinator CoordinatorConfig `json:"coordinator,omitempty" yaml:"coordinator,omitempty"`
	// Throttle configures replanning storm protection.
	Throttle ThrottleConfig `json:"throttle,omitempty" yaml:"throttle,omitempty"`
	// Recovery configures self-recovery and sensor isolation.
	Recovery RecoveryConfig `json:"recovery,omitempty" yaml:"recovery,omitempty"`
	// Scheduler configures the tick loop.
	Scheduler SchedulerConfig `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`
	// Journal configures the lifecycle journal backend.
	Journal JournalConfig `json:"journal,omitempty" yaml:"journal,omitempty"`
	// Telemetry configures tracing and metrics.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is console or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// PlannerConfig configures the planner.
type PlannerConfig struct {
	// MaxIterations caps node expansions per search.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// MinCost is the floor applied to every action cost.
	MinCost float64 `json:"min_cost,omitempty" yaml:"min_cost,omitempty"`
}

// CoordinatorConfig configures the planner manager.
type CoordinatorConfig struct {
	// Workers is the number of background search workers.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// QueueSize bounds pending requests.
	QueueSize int `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	// MaxConcurrent bounds simultaneous searches.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// RequestsPerSecond bounds search admission.
	RequestsPerSecond int `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
}

// ThrottleConfig configures replanning storm protection.
type ThrottleConfig struct {
	// MaxReplans is the number of plan requests allowed per window.
	MaxReplans int `json:"max_replans,omitempty" yaml:"max_replans,omitempty"`
	// Window is the rolling window length.
	Window Duration `json:"window,omitempty" yaml:"window,omitempty"`
	// Cooldown is how long the agent stays suspended.
	Cooldown Duration `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
}

// RecoveryConfig configures recovery and sensor isolation.
type RecoveryConfig struct {
	// Attempts is how many times recovery is tried before disabling.
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	// Delay is the initial delay between attempts.
	Delay Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
	// SensorFailureThreshold is consecutive sensor failures before the
	// sensor is skipped.
	SensorFailureThreshold int `json:"sensor_failure_threshold,omitempty" yaml:"sensor_failure_threshold,omitempty"`
	// SensorCooldown is how long a failing sensor is skipped.
	SensorCooldown Duration `json:"sensor_cooldown,omitempty" yaml:"sensor_cooldown,omitempty"`
}

// SchedulerConfig configures the tick loop.
type SchedulerConfig struct {
	// Interval is the time between ticks.
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// Journal backends.
const (
	JournalNone   = "none"
	JournalMemory = "memory"
	JournalSQLite = "sqlite"
	JournalRedis  = "redis"
)

// JournalConfig configures the lifecycle journal.
type JournalConfig struct {
	// Backend is none, memory, sqlite or redis.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// DSN is the SQLite data source name.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Address is the Redis server address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Password is the Redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	// ServiceName is reported in trace resources.
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	// Tracing is noop, stdout or otlp.
	Tracing string `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for the OTLP exporter.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the trace sampling ratio.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	// Metrics enables OpenTelemetry metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// DefaultRuntimeConfig returns the defaults used when no file is given.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Name:    "goap",
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Planner: PlannerConfig{MaxIterations: 1000, MinCost: 0.01},
		Coordinator: CoordinatorConfig{
			Workers:           2,
			QueueSize:         256,
			MaxConcurrent:     2,
			RequestsPerSecond: 200,
		},
		Throttle: ThrottleConfig{
			MaxReplans: 5,
			Window:     Duration(time.Second),
			Cooldown:   Duration(10 * time.Second),
		},
		Recovery: RecoveryConfig{
			Attempts:               3,
			Delay:                  Duration(time.Millisecond),
			SensorFailureThreshold: 3,
			SensorCooldown:         Duration(5 * time.Second),
		},
		Scheduler: SchedulerConfig{Interval: Duration(500 * time.Millisecond)},
		Journal:   JournalConfig{Backend: JournalMemory, KeyPrefix: "goap:"},
		Telemetry: TelemetryConfig{ServiceName: "goap", Tracing: "noop", SampleRate: 1.0},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
