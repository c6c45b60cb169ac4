package resilience

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/goap-go/domain/goap"
)

// ErrSearchRejected indicates the bulkhead turned a search away.
var ErrSearchRejected = errors.New("resilience: search rejected, bulkhead full")

// SearchLimiter bounds concurrent searches and the rate at which new
// searches are admitted.
type SearchLimiter struct {
	bulkhead bulkhead.Bulkhead[*goap.Plan]
	limiter  ratelimit.RateLimiter
}

// NewSearchLimiter creates a search limiter.
func NewSearchLimiter(config Config) *SearchLimiter {
	rate := positive(config.SearchesPerSecond, 200)
	return &SearchLimiter{
		bulkhead: bulkhead.New[*goap.Plan](bulkhead.Config{
			MaxConcurrent: positive(config.MaxConcurrentSearches, 4),
		}),
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate,
			FailOpen: true,
		}),
	}
}

// Admit reports whether a new search may start now. Callers that are
// refused keep the request queued and ask again later.
func (l *SearchLimiter) Admit(ctx context.Context) bool {
	return l.limiter.Allow(ctx, "search")
}

// Execute runs search inside the bulkhead. ErrSearchRejected means the
// search never started.
func (l *SearchLimiter) Execute(ctx context.Context, search func(ctx context.Context) (*goap.Plan, error)) (*goap.Plan, error) {
	ran := false
	plan, err := l.bulkhead.Execute(ctx, func(ctx context.Context) (*goap.Plan, error) {
		ran = true
		return search(ctx)
	})
	if err != nil && !ran {
		return nil, errors.Join(ErrSearchRejected, err)
	}
	return plan, err
}
