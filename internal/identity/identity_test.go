//go:build integration

package identity

import (
	"context"
	"testing"

	"github.com/visitlog/visitlog/internal/testutil"
)

func TestIdentifyAndResolve(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewRedis(t)
	schema := testutil.NewSchema(t, client)
	svc := NewService(client, schema, nil)

	// Unknown visitor resolves to empty without error.
	label, err := svc.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if label != "" {
		t.Errorf("expected empty label, got %q", label)
	}

	if err := svc.Identify(ctx, "visitor-a", "mario@example.com"); err != nil {
		t.Fatalf("identify failed: %v", err)
	}

	label, err = svc.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if label != "mario@example.com" {
		t.Errorf("expected stored label, got %q", label)
	}

	// Last write wins.
	if err := svc.Identify(ctx, "visitor-a", "luigi@example.com"); err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	label, _ = svc.Resolve(ctx, "visitor-a")
	if label != "luigi@example.com" {
		t.Errorf("expected overwritten label, got %q", label)
	}

	// Both labels live in the known-identities set; no duplicates.
	members, err := client.SMembers(ctx, schema.KnownIdentities()).Result()
	if err != nil {
		t.Fatalf("smembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 known identities, got %v", members)
	}
}
