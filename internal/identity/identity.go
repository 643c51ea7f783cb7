// Package identity maps visitor fingerprints to optional human labels.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/metrics"
)

// Service stores and resolves identity labels. At most one label exists
// per visitor id (last write wins); labels never expire.
type Service struct {
	client  *redis.Client
	schema  keys.Schema
	metrics metrics.Recorder
}

// NewService creates an identity Service.
func NewService(client *redis.Client, schema keys.Schema, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		client:  client,
		schema:  schema,
		metrics: recorder,
	}
}

// Identify stores label for visitorID, overwriting any prior label, and
// records it in the global known-identities set.
func (s *Service) Identify(ctx context.Context, visitorID, label string) error {
	if err := s.client.Set(ctx, s.schema.Identity(visitorID), label, 0).Err(); err != nil {
		return fmt.Errorf("store identity: %w", err)
	}
	if err := s.client.SAdd(ctx, s.schema.KnownIdentities(), label).Err(); err != nil {
		return fmt.Errorf("record known identity: %w", err)
	}
	s.metrics.IncIdentityRecorded()
	return nil
}

// Resolve returns the label for visitorID, or "" if none is stored.
func (s *Service) Resolve(ctx context.Context, visitorID string) (string, error) {
	label, err := s.client.Get(ctx, s.schema.Identity(visitorID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}
	return label, nil
}
