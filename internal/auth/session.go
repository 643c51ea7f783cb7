package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/keys"
)

// SessionCookie is the cookie that carries the admin session token.
const SessionCookie = "admin_token"

// Sessions manages admin dashboard sessions. A session is an opaque ULID
// token stored server-side with a TTL; presenting a token that still
// exists in the store is the entire proof of authentication.
type Sessions struct {
	client *redis.Client
	schema keys.Schema
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session manager with the given lifetime.
func NewSessions(client *redis.Client, schema keys.Schema, ttl time.Duration) *Sessions {
	return &Sessions{
		client: client,
		schema: schema,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured session lifetime, for cookie expiry.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Create mints a new session token and persists it with the configured
// TTL. Tokens are ULIDs with crypto/rand entropy.
func (s *Sessions) Create(ctx context.Context) (string, error) {
	id, err := ulid.New(ulid.Timestamp(s.now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := id.String()

	createdAt := s.now().UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, s.schema.Session(token), createdAt, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Validate reports whether token names a live session.
func (s *Sessions) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if _, err := ulid.ParseStrict(token); err != nil {
		return false, nil
	}

	err := s.client.Get(ctx, s.schema.Session(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up session: %w", err)
	}
	return true, nil
}

// Destroy removes a session. Destroying a missing session is not an
// error.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.schema.Session(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
