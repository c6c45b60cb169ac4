// Package event provides the agent lifecycle journal: event types, payloads
// and the Store contract implemented by the storage backends.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is stamped on every event this package creates.
const SchemaVersion = 1

// Event is one journal entry for an agent.
type Event struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id"`
	Type    Type   `json:"type"`

	// Timestamp is agent time, which is the scheduler clock and therefore
	// virtual in simulations.
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`

	// Sequence orders the agent's stream. Stores assign it on Append.
	Sequence uint64 `json:"sequence"`
	Version  int    `json:"version,omitempty"`
}

// NewEvent encodes payload into an event for agentID stamped at at.
func NewEvent(agentID string, typ Type, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Event{
		AgentID:   agentID,
		Type:      typ,
		Timestamp: at,
		Payload:   data,
		Version:   SchemaVersion,
	}, nil
}

// Decode unmarshals the payload into v, which should be the payload type
// matching e.Type.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Validate checks the fields a store requires.
func (e *Event) Validate() error {
	if e.AgentID == "" || e.Type == "" {
		return ErrInvalidEvent
	}
	return nil
}
