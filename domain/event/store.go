package event

import "context"

// Store persists the journal. Implementations may be in-memory, SQLite,
// Redis or any other backend.
type Store interface {
	// Append persists one or more events atomically.
	// Events are assigned sequence numbers in order of appearance.
	Append(ctx context.Context, events ...Event) error

	// Load retrieves all events for an agent in sequence order.
	Load(ctx context.Context, agentID string) ([]Event, error)

	// LoadFrom retrieves events with Sequence >= fromSeq.
	LoadFrom(ctx context.Context, agentID string, fromSeq uint64) ([]Event, error)

	// ListAgents returns all agent IDs with events in the store, sorted.
	ListAgents(ctx context.Context) ([]string, error)
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}
