// Package memory provides in-memory storage backends.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/goap-go/domain/event"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 100

// Journal is an in-memory implementation of event.Store.
type Journal struct {
	events      map[string][]event.Event // agentID -> events
	subscribers map[string][]chan event.Event
	sequences   map[string]uint64 // agentID -> last sequence
	mu          sync.RWMutex
}

// NewJournal creates a new in-memory journal.
func NewJournal() *Journal {
	return &Journal{
		events:      make(map[string][]event.Event),
		subscribers: make(map[string][]chan event.Event),
		sequences:   make(map[string]uint64),
	}
}

// Append persists one or more events atomically. Nothing is stored when any
// event is invalid.
func (j *Journal) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		j.sequences[e.AgentID]++
		e.Sequence = j.sequences[e.AgentID]
		j.events[e.AgentID] = append(j.events[e.AgentID], e)

		for _, sub := range j.subscribers[e.AgentID] {
			select {
			case sub <- e:
			default:
				// Subscriber is behind, drop rather than block appends.
			}
		}
	}

	return nil
}

// Load retrieves all events for an agent in sequence order.
func (j *Journal) Load(ctx context.Context, agentID string) ([]event.Event, error) {
	return j.LoadFrom(ctx, agentID, 0)
}

// LoadFrom retrieves events starting from a specific sequence number.
func (j *Journal) LoadFrom(ctx context.Context, agentID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	result := []event.Event{}
	for _, e := range j.events[agentID] {
		if e.Sequence >= fromSeq {
			result = append(result, e)
		}
	}
	return result, nil
}

// ListAgents returns all agent IDs with events in the journal, sorted.
func (j *Journal) ListAgents(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	agents := make([]string, 0, len(j.events))
	for id := range j.events {
		agents = append(agents, id)
	}
	sort.Strings(agents)
	return agents, nil
}

// Subscribe returns a channel that receives new events for an agent until
// ctx is cancelled, after which the channel is closed.
func (j *Journal) Subscribe(ctx context.Context, agentID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	ch := make(chan event.Event, subscriberBuffer)
	j.subscribers[agentID] = append(j.subscribers[agentID], ch)

	go func() {
		<-ctx.Done()
		j.unsubscribe(agentID, ch)
	}()

	return ch, nil
}

func (j *Journal) unsubscribe(agentID string, ch chan event.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	subs := j.subscribers[agentID]
	for i, sub := range subs {
		if sub == ch {
			j.subscribers[agentID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(j.subscribers[agentID]) == 0 {
		delete(j.subscribers, agentID)
	}
}

// Delete removes all events for an agent.
func (j *Journal) Delete(ctx context.Context, agentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	delete(j.events, agentID)
	delete(j.sequences, agentID)
	return nil
}

// Len returns the total number of events across all agents.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var count int
	for _, events := range j.events {
		count += len(events)
	}
	return count
}

var _ event.Store = (*Journal)(nil)

// Close is a no-op. It lets the in-memory journal stand in wherever a
// closable backend is expected.
func (j *Journal) Close() error { return nil }
