package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates runtime configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *RuntimeConfig) ValidationErrors {
	v.errors = nil

	if config.Name == "" {
		v.addError("name", "name is required")
	}
	v.validateLogging(config.Logging)
	v.validatePlanner(config.Planner)
	v.validateCoordinator(config.Coordinator)
	v.validateThrottle(config.Throttle)
	v.validateRecovery(config.Recovery)
	if config.Scheduler.Interval < 0 {
		v.addError("scheduler.interval", "interval must be non-negative")
	}
	v.validateJournal(config.Journal)
	v.validateTelemetry(config.Telemetry)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) nonNegative(path string, n int) {
	if n < 0 {
		v.addError(path, "must be non-negative")
	}
}

func (v *Validator) validateLogging(c LoggingConfig) {
	switch c.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", c.Level))
	}
	switch c.Format {
	case "", "console", "json":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", c.Format))
	}
}

func (v *Validator) validatePlanner(c PlannerConfig) {
	v.nonNegative("planner.max_iterations", c.MaxIterations)
	if c.MinCost < 0 {
		v.addError("planner.min_cost", "must be non-negative")
	}
}

func (v *Validator) validateCoordinator(c CoordinatorConfig) {
	v.nonNegative("coordinator.workers", c.Workers)
	v.nonNegative("coordinator.queue_size", c.QueueSize)
	v.nonNegative("coordinator.max_concurrent", c.MaxConcurrent)
	v.nonNegative("coordinator.requests_per_second", c.RequestsPerSecond)
}

func (v *Validator) validateThrottle(c ThrottleConfig) {
	v.nonNegative("throttle.max_replans", c.MaxReplans)
	if c.Window < 0 {
		v.addError("throttle.window", "must be non-negative")
	}
	if c.Cooldown < 0 {
		v.addError("throttle.cooldown", "must be non-negative")
	}
}

func (v *Validator) validateRecovery(c RecoveryConfig) {
	v.nonNegative("recovery.attempts", c.Attempts)
	v.nonNegative("recovery.sensor_failure_threshold", c.SensorFailureThreshold)
	if c.Delay < 0 {
		v.addError("recovery.delay", "must be non-negative")
	}
}

func (v *Validator) validateJournal(c JournalConfig) {
	switch c.Backend {
	case "", JournalNone, JournalMemory:
	case JournalSQLite:
		if c.DSN == "" {
			v.addError("journal.dsn", "dsn is required for the sqlite backend")
		}
	case JournalRedis:
		if c.Address == "" {
			v.addError("journal.address", "address is required for the redis backend")
		}
	default:
		v.addError("journal.backend", fmt.Sprintf("invalid backend: %s", c.Backend))
	}
}

func (v *Validator) validateTelemetry(c TelemetryConfig) {
	switch c.Tracing {
	case "", "noop", "stdout":
	case "otlp":
		if c.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for otlp tracing")
		}
	default:
		v.addError("telemetry.tracing", fmt.Sprintf("invalid exporter: %s", c.Tracing))
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		v.addError("telemetry.sample_rate", "must be between 0 and 1")
	}
}
