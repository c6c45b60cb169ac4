package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/event"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.KeyPrefix != "goap:" {
		t.Errorf("KeyPrefix = %s, want goap:", cfg.KeyPrefix)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v, want 5s", cfg.DialTimeout)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithAddress("redis.example.com:6380"),
		WithPassword("secret"),
		WithKeyPrefix("sim:"),
		WithDialTimeout(time.Second),
	} {
		opt(&cfg)
	}

	opts := cfg.options()
	if opts.Addr != "redis.example.com:6380" || opts.Password != "secret" {
		t.Errorf("options() = %+v", opts)
	}
	if opts.DialTimeout != time.Second {
		t.Errorf("DialTimeout = %v, want 1s", opts.DialTimeout)
	}
	if cfg.KeyPrefix != "sim:" {
		t.Errorf("KeyPrefix = %s, want sim:", cfg.KeyPrefix)
	}
}

func TestJournal_Keys(t *testing.T) {
	t.Parallel()

	j := NewJournalFromClient(nil, "goap:")
	if got := j.eventsKey("guard-1"); got != "goap:journal:events:guard-1" {
		t.Errorf("eventsKey() = %s", got)
	}
	if got := j.eventsKey("agents"); got == j.agentsKey() {
		t.Error("agent named agents collides with the agent set key")
	}
	if got := j.agentsKey(); got != "goap:journal:agents" {
		t.Errorf("agentsKey() = %s", got)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	byAgent, order, err := encode([]event.Event{
		{AgentID: "b", Type: event.TypeAgentStarted},
		{AgentID: "a", Type: event.TypeAgentStarted},
		{AgentID: "b", Type: event.TypeGoalSelected, Sequence: 99},
	})
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("order = %v, want [b a]", order)
	}
	if len(byAgent["b"]) != 2 {
		t.Fatalf("byAgent[b] len = %d, want 2", len(byAgent["b"]))
	}

	var e event.Event
	if err := json.Unmarshal(byAgent["b"][1].([]byte), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.Sequence != 0 {
		t.Errorf("encoded Sequence = %d, want 0", e.Sequence)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("encoded event missing id or timestamp: %+v", e)
	}

	_, _, err = encode([]event.Event{{AgentID: "a"}})
	if !errors.Is(err, event.ErrInvalidEvent) {
		t.Errorf("encode() error = %v, want ErrInvalidEvent", err)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	raw := []string{
		`{"id":"1","agent_id":"a","type":"action.started","timestamp":"2026-01-01T00:00:00Z","payload":null}`,
		`{"id":"2","agent_id":"a","type":"action.failed","timestamp":"2026-01-01T00:00:01Z","payload":null}`,
	}

	events, err := decode(raw, 4)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if events[0].Sequence != 5 || events[1].Sequence != 6 {
		t.Errorf("sequences = %d, %d, want 5, 6", events[0].Sequence, events[1].Sequence)
	}
	if events[1].Type != event.TypeActionFailed {
		t.Errorf("Type = %s, want action.failed", events[1].Type)
	}

	if _, err := decode([]string{"not json"}, 0); err == nil {
		t.Error("decode() expected error for malformed entry")
	}
}

func TestNewJournal_ConnectionFailure(t *testing.T) {
	t.Parallel()

	_, err := NewJournal(DefaultConfig(),
		WithAddress("127.0.0.1:1"),
		WithDialTimeout(200*time.Millisecond),
	)
	if !errors.Is(err, event.ErrConnectionFailed) {
		t.Errorf("NewJournal() error = %v, want ErrConnectionFailed", err)
	}
}

func TestJournal_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := NewJournalFromClient(nil, "goap:")
	if err := j.Append(ctx, event.Event{AgentID: "a", Type: event.TypeAgentStarted}); !errors.Is(err, context.Canceled) {
		t.Errorf("Append() error = %v, want context.Canceled", err)
	}
	if _, err := j.Load(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
	if _, err := j.ListAgents(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ListAgents() error = %v, want context.Canceled", err)
	}
}
