package resilience

import "time"

// Clock returns the current time. Simulations drive it from the tick count.
type Clock func() time.Time

// ThrottleConfig configures replanning storm detection.
type ThrottleConfig struct {
	// MaxReplans is the number of plan requests allowed per Window.
	MaxReplans int

	// Window is the rolling window replans are counted over.
	Window time.Duration

	// Cooldown is how long planning stays suspended once tripped.
	Cooldown time.Duration
}

// DefaultThrottleConfig allows 5 requests per second and suspends for 10s.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		MaxReplans: 5,
		Window:     time.Second,
		Cooldown:   10 * time.Second,
	}
}

// Throttle detects goal/action oscillation by counting plan requests in a
// rolling window. It belongs to a single agent and is not safe for
// concurrent use.
type Throttle struct {
	config         ThrottleConfig
	now            Clock
	attempts       []time.Time
	suspendedUntil time.Time
	suspensions    int
}

// NewThrottle creates a throttle. A nil clock uses time.Now.
func NewThrottle(config ThrottleConfig, now Clock) *Throttle {
	def := DefaultThrottleConfig()
	if config.MaxReplans <= 0 {
		config.MaxReplans = def.MaxReplans
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.Cooldown <= 0 {
		config.Cooldown = def.Cooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{config: config, now: now}
}

// Allow records a plan request. It returns false if planning is suspended
// or if this request exceeds the window budget, in which case the
// suspension starts now.
func (t *Throttle) Allow() bool {
	now := t.now()
	if t.Suspended() {
		return false
	}

	cutoff := now.Add(-t.config.Window)
	kept := t.attempts[:0]
	for _, at := range t.attempts {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	t.attempts = kept

	if len(t.attempts) >= t.config.MaxReplans {
		t.suspendedUntil = now.Add(t.config.Cooldown)
		t.suspensions++
		t.attempts = t.attempts[:0]
		return false
	}

	t.attempts = append(t.attempts, now)
	return true
}

// Suspended reports whether the cool-down is still running.
func (t *Throttle) Suspended() bool {
	return t.now().Before(t.suspendedUntil)
}

// Remaining returns the cool-down time left.
func (t *Throttle) Remaining() time.Duration {
	if !t.Suspended() {
		return 0
	}
	return t.suspendedUntil.Sub(t.now())
}

// SuspendedUntil returns the end of the current or last cool-down.
func (t *Throttle) SuspendedUntil() time.Time { return t.suspendedUntil }

// Suspensions returns how many times the throttle has tripped.
func (t *Throttle) Suspensions() int { return t.suspensions }

// Attempts returns the requests counted in the current window.
func (t *Throttle) Attempts() int {
	cutoff := t.now().Add(-t.config.Window)
	n := 0
	for _, at := range t.attempts {
		if at.After(cutoff) {
			n++
		}
	}
	return n
}

// Config returns the effective configuration.
func (t *Throttle) Config() ThrottleConfig { return t.config }

// Reset clears the window and any suspension.
func (t *Throttle) Reset() {
	t.attempts = t.attempts[:0]
	t.suspendedUntil = time.Time{}
}
