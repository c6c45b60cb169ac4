package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/goap-go/domain/event"
)

// Journal is a Redis-backed implementation of event.Store.
//
// Each agent's events live in one list. An event's sequence is its list
// position plus one, so RPUSH is the only write needed to order a batch.
type Journal struct {
	client    *redis.Client
	keyPrefix string
}

// NewJournal connects to Redis and returns a journal.
func NewJournal(cfg Config, opts ...ConfigOption) (*Journal, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(event.ErrConnectionFailed, err)
	}

	return NewJournalFromClient(client, cfg.KeyPrefix), nil
}

// NewJournalFromClient creates a journal from an existing Redis client.
func NewJournalFromClient(client *redis.Client, keyPrefix string) *Journal {
	return &Journal{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (j *Journal) eventsKey(agentID string) string {
	return j.keyPrefix + "journal:events:" + agentID
}

func (j *Journal) agentsKey() string {
	return j.keyPrefix + "journal:agents"
}

// encode serializes events grouped per agent, preserving batch order.
func encode(events []event.Event) (map[string][]any, []string, error) {
	byAgent := make(map[string][]any)
	var order []string
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, nil, err
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
		e.Sequence = 0

		data, err := json.Marshal(e)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := byAgent[e.AgentID]; !ok {
			order = append(order, e.AgentID)
		}
		byAgent[e.AgentID] = append(byAgent[e.AgentID], data)
	}
	return byAgent, order, nil
}

// Append persists one or more events in a MULTI/EXEC transaction.
func (j *Journal) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	byAgent, order, err := encode(events)
	if err != nil {
		return err
	}

	_, err = j.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, agentID := range order {
			pipe.RPush(ctx, j.eventsKey(agentID), byAgent[agentID]...)
			pipe.SAdd(ctx, j.agentsKey(), agentID)
		}
		return nil
	})
	return err
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

	start := int64(0)
	if fromSeq > 1 {
		start = int64(fromSeq - 1) // #nosec G115 -- list indexes fit in int64
	}

	raw, err := j.client.LRange(ctx, j.eventsKey(agentID), start, -1).Result()
	if err != nil {
		return nil, err
	}
	return decode(raw, start)
}

// decode parses list entries read from index start.
func decode(raw []string, start int64) ([]event.Event, error) {
	events := make([]event.Event, 0, len(raw))
	for i, data := range raw {
		var e event.Event
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, err
		}
		e.Sequence = uint64(start) + uint64(i) + 1 // #nosec G115 -- start is never negative
		events = append(events, e)
	}
	return events, nil
}

// ListAgents returns all agent IDs with events in the journal, sorted.
func (j *Journal) ListAgents(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agents, err := j.client.SMembers(ctx, j.agentsKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(agents)
	return agents, nil
}

// Delete removes all events for an agent.
func (j *Journal) Delete(ctx context.Context, agentID string) error {
	_, err := j.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, j.eventsKey(agentID))
		pipe.SRem(ctx, j.agentsKey(), agentID)
		return nil
	})
	return err
}

// Close closes the Redis client.
func (j *Journal) Close() error {
	return j.client.Close()
}

var (
	_ event.Store  = (*Journal)(nil)
	_ event.Closer = (*Journal)(nil)
)
