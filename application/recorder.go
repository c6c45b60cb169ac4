package application

import (
	"context"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/event"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
)

// Recorder appends lifecycle events to a journal. Journal failures are
// logged and never reach the think cycle.
type Recorder struct {
	store event.Store
}

// NewRecorder creates a recorder. A nil store discards every event.
func NewRecorder(store event.Store) *Recorder {
	return &Recorder{store: store}
}

// Enabled reports whether events are being kept.
func (r *Recorder) Enabled() bool { return r != nil && r.store != nil }

// Record appends one event for agentID.
func (r *Recorder) Record(ctx context.Context, agentID string, typ event.Type, at time.Time, payload any) {
	if !r.Enabled() {
		return
	}

	ev, err := event.NewEvent(agentID, typ, at, payload)
	if err != nil {
		logging.Warn().
			Add(logging.AgentID(agentID)).
			Add(logging.Str("event_type", string(typ))).
			Add(logging.ErrorField(err)).
			Msg("failed to encode journal event")
		return
	}

	if err := r.store.Append(ctx, ev); err != nil {
		logging.Warn().
			Add(logging.AgentID(agentID)).
			Add(logging.Str("event_type", string(typ))).
			Add(logging.ErrorField(err)).
			Msg("failed to append journal event")
	}
}
