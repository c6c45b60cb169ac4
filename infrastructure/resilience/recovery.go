package resilience

import (
	"context"

	"github.com/felixgeelhaar/fortify/retry"
)

// Recoverer retries an agent reset with exponential backoff.
type Recoverer struct {
	retry    retry.Retry[struct{}]
	attempts int
}

// NewRecoverer creates a recoverer.
func NewRecoverer(config Config) *Recoverer {
	attempts := positive(config.RecoveryAttempts, 1)
	multiplier := config.RecoveryBackoff
	if multiplier < 1 {
		multiplier = 1
	}
	return &Recoverer{
		retry: retry.New[struct{}](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  config.RecoveryDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    multiplier,
		}),
		attempts: attempts,
	}
}

// Attempts returns the configured attempt count.
func (r *Recoverer) Attempts() int { return r.attempts }

// Do runs reset until it succeeds or the attempts are exhausted.
func (r *Recoverer) Do(ctx context.Context, reset func(ctx context.Context) error) error {
	_, err := r.retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, reset(ctx)
	})
	return err
}
