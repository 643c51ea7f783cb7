//go:build integration

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/visitlog/visitlog/internal/testutil"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewRedis(t)
	schema := testutil.NewSchema(t, client)

	sessions := NewSessions(client, schema, time.Minute)

	token, err := sessions.Create(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	ok, err := sessions.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatal("freshly created session did not validate")
	}

	ttl := client.TTL(ctx, schema.Session(token)).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("session TTL = %v, want within (0, 1m]", ttl)
	}

	if err := sessions.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	ok, err = sessions.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate after destroy: %v", err)
	}
	if ok {
		t.Error("destroyed session still validates")
	}

	// Destroying again must be a no-op.
	if err := sessions.Destroy(ctx, token); err != nil {
		t.Errorf("double destroy errored: %v", err)
	}
}
