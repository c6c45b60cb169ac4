package application

import (
	"sync"

	"github.com/felixgeelhaar/goap-go/domain/goap"
)

// delivery is one search result tagged with the request generation it
// answers.
type delivery struct {
	generation uint64
	plan       *goap.Plan
}

// inbox holds plan results between the goroutine that produced them and the
// next tick. Only the latest delivery is kept.
type inbox struct {
	mu      sync.Mutex
	pending *delivery
}

func (b *inbox) put(generation uint64, plan *goap.Plan) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = &delivery{generation: generation, plan: plan}
}

func (b *inbox) take() *delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.pending
	b.pending = nil
	return d
}
