// Package redis provides a Redis-backed agent journal.
package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Config locates the journal in Redis.
type Config struct {
	Address  string
	Password string

	// KeyPrefix namespaces the journal lists, so several simulations can
	// share one server.
	KeyPrefix string

	// DialTimeout bounds the connection check made by NewJournal.
	DialTimeout time.Duration
}

// DefaultConfig returns a local journal configuration.
func DefaultConfig() Config {
	return Config{
		Address:     "localhost:6379",
		KeyPrefix:   "goap:",
		DialTimeout: 5 * time.Second,
	}
}

// ConfigOption configures the journal connection.
type ConfigOption func(*Config)

// WithAddress sets the server address.
func WithAddress(addr string) ConfigOption {
	return func(c *Config) { c.Address = addr }
}

// WithPassword sets the authentication password.
func WithPassword(password string) ConfigOption {
	return func(c *Config) { c.Password = password }
}

// WithKeyPrefix sets the journal key prefix.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) { c.KeyPrefix = prefix }
}

// WithDialTimeout sets the connection timeout.
func WithDialTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.DialTimeout = d }
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:        c.Address,
		Password:    c.Password,
		DialTimeout: c.DialTimeout,
	}
}
