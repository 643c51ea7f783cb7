// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/keys"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// NewRedis returns a Redis client for integration tests, skipping the
// test when no server is reachable. TEST_REDIS_URL overrides the default
// local address.
func NewRedis(t testing.TB) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse TEST_REDIS_URL: %v", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// NewSchema returns a key schema under a unique test prefix and removes
// all keys written under it when the test finishes.
func NewSchema(t testing.TB, client *redis.Client) keys.Schema {
	t.Helper()

	prefix := fmt.Sprintf("testvisitlog:%d", time.Now().UnixNano())
	t.Cleanup(func() {
		DeleteByPattern(t, client, prefix+":*")
	})
	return keys.NewSchema(prefix)
}

// DeleteByPattern removes all keys matching pattern.
func DeleteByPattern(t testing.TB, client *redis.Client, pattern string) {
	t.Helper()

	ctx := context.Background()
	var cursor uint64
	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			t.Logf("cleanup scan failed: %v", err)
			return
		}
		if len(batch) > 0 {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				t.Logf("cleanup del failed: %v", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
