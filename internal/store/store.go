// Package store provides the shared key-value store client.
// A single Store is constructed by the process entry point and injected
// into the tracker, query engine, identity and session services; no
// component opens its own connection.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps a Redis client with lifecycle management.
type Store struct {
	client *redis.Client
}

// New creates a Store and verifies connectivity.
// Commands retry up to three times with a short backoff; after that the
// error surfaces to the caller rather than looping on reconnects.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool and retry settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 50 * time.Millisecond
	opt.MaxRetryBackoff = 2 * time.Second
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for command execution.
func (s *Store) Client() *redis.Client {
	return s.client
}
