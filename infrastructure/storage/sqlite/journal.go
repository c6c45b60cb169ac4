package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/felixgeelhaar/goap-go/domain/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS journal (
	id         TEXT PRIMARY KEY,
	agent_id   TEXT NOT NULL,
	type       TEXT NOT NULL,
	sequence   INTEGER NOT NULL,
	timestamp  INTEGER NOT NULL,
	payload    BLOB,
	version    INTEGER NOT NULL DEFAULT 1
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_journal_agent_seq ON journal(agent_id, sequence);
CREATE INDEX IF NOT EXISTS idx_journal_type ON journal(type);
`

// row is the table representation of an event.
type row struct {
	ID        string `db:"id"`
	AgentID   string `db:"agent_id"`
	Type      string `db:"type"`
	Sequence  int64  `db:"sequence"`
	Timestamp int64  `db:"timestamp"`
	Payload   []byte `db:"payload"`
	Version   int    `db:"version"`
}

func (r row) event() event.Event {
	return event.Event{
		ID:        r.ID,
		AgentID:   r.AgentID,
		Type:      event.Type(r.Type),
		Sequence:  uint64(r.Sequence), // #nosec G115 -- sequences start at 1
		Timestamp: time.Unix(0, r.Timestamp),
		Payload:   r.Payload,
		Version:   r.Version,
	}
}

// Journal is a SQLite-backed implementation of event.Store.
type Journal struct {
	db *sqlx.DB
}

// NewJournal opens a SQLite journal with the given configuration.
func NewJournal(cfg Config, opts ...Option) (*Journal, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	j := &Journal{db: db}
	if cfg.AutoMigrate {
		if err := j.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return j, nil
}

// NewJournalFromDB creates a journal from an existing connection and
// migrates its schema.
func NewJournalFromDB(db *sqlx.DB) (*Journal, error) {
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	if _, err := j.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append persists one or more events in a single transaction.
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

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO journal (id, agent_id, type, sequence, timestamp, payload, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	sequences := make(map[string]int64)
	for _, e := range events {
		seq, ok := sequences[e.AgentID]
		if !ok {
			var last sql.NullInt64
			if err := tx.GetContext(ctx, &last,
				"SELECT MAX(sequence) FROM journal WHERE agent_id = ?", e.AgentID,
			); err != nil {
				return err
			}
			seq = last.Int64
		}
		seq++
		sequences[e.AgentID] = seq

		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
		if e.Version == 0 {
			e.Version = event.SchemaVersion
		}

		if _, err := stmt.ExecContext(ctx,
			e.ID, e.AgentID, string(e.Type), seq, e.Timestamp.UnixNano(), []byte(e.Payload), e.Version,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
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

	var rows []row
	if err := j.db.SelectContext(ctx, &rows,
		`SELECT id, agent_id, type, sequence, timestamp, payload, version
		 FROM journal WHERE agent_id = ? AND sequence >= ? ORDER BY sequence`,
		agentID, int64(fromSeq), // #nosec G115 -- sequences fit in int64
	); err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.event())
	}
	return events, nil
}

// ListAgents returns all agent IDs with events in the journal, sorted.
func (j *Journal) ListAgents(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agents := []string{}
	if err := j.db.SelectContext(ctx, &agents,
		"SELECT DISTINCT agent_id FROM journal ORDER BY agent_id",
	); err != nil {
		return nil, err
	}
	return agents, nil
}

// Count returns the number of events recorded for an agent.
func (j *Journal) Count(ctx context.Context, agentID string) (int64, error) {
	var count int64
	err := j.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM journal WHERE agent_id = ?", agentID)
	return count, err
}

// Delete removes all events for an agent.
func (j *Journal) Delete(ctx context.Context, agentID string) error {
	_, err := j.db.ExecContext(ctx, "DELETE FROM journal WHERE agent_id = ?", agentID)
	return err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// DB returns the underlying database connection.
func (j *Journal) DB() *sqlx.DB {
	return j.db
}

var (
	_ event.Store  = (*Journal)(nil)
	_ event.Closer = (*Journal)(nil)
)
