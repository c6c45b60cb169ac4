// Package storage selects a lifecycle journal backend from configuration.
package storage

import (
	"fmt"

	"github.com/felixgeelhaar/goap-go/domain/config"
	"github.com/felixgeelhaar/goap-go/domain/event"
	"github.com/felixgeelhaar/goap-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/goap-go/infrastructure/storage/redis"
	"github.com/felixgeelhaar/goap-go/infrastructure/storage/sqlite"
)

// Journal is an event store that holds resources until closed.
type Journal interface {
	event.Store
	event.Closer
}

// OpenJournal opens the backend named by cfg.Backend. The none backend
// returns a nil journal and no error.
func OpenJournal(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Backend {
	case config.JournalNone:
		return nil, nil
	case "", config.JournalMemory:
		return memory.NewJournal(), nil
	case config.JournalSQLite:
		opts := []sqlite.Option{sqlite.WithAutoMigrate()}
		if cfg.DSN != "" {
			opts = append(opts, sqlite.WithDSN(cfg.DSN))
		}
		j, err := sqlite.NewJournal(sqlite.DefaultConfig(), opts...)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		return j, nil
	case config.JournalRedis:
		opts := []redis.ConfigOption{redis.WithPassword(cfg.Password)}
		if cfg.Address != "" {
			opts = append(opts, redis.WithAddress(cfg.Address))
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redis.WithKeyPrefix(cfg.KeyPrefix))
		}
		j, err := redis.NewJournal(redis.DefaultConfig(), opts...)
		if err != nil {
			return nil, fmt.Errorf("open redis journal: %w", err)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("%w: %q", event.ErrUnknownBackend, cfg.Backend)
	}
}
