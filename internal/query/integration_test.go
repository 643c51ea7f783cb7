//go:build integration

package query

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/directory"
	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/testutil"
)

func newIntegrationEngine(t *testing.T) (*Engine, *redis.Client, keys.Schema) {
	t.Helper()

	client := testutil.NewRedis(t)
	schema := testutil.NewSchema(t, client)
	dir := directory.New(client, schema)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewEngine(client, schema, dir, logger, nil), client, schema
}

// seedDay writes one synthetic day of aggregates: n views, one visitor,
// page and country rankings, and a directory record with log entry.
func seedDay(t *testing.T, client *redis.Client, schema keys.Schema, day, visitorID, ip, country, page string, views int64) {
	t.Helper()
	ctx := context.Background()

	pipe := client.Pipeline()
	pipe.IncrBy(ctx, schema.Views(day), views)
	pipe.PFAdd(ctx, schema.Visitors(day), visitorID)
	pipe.ZIncrBy(ctx, schema.Pages(day), float64(views), page)
	pipe.ZIncrBy(ctx, schema.Countries(day), float64(views), country)
	pipe.ZIncrBy(ctx, schema.PagesByCountry(country, day), float64(views), page)
	pipe.ZIncrBy(ctx, schema.TopVisitors(day), float64(views), visitorID)
	pipe.ZIncrBy(ctx, schema.VisitorPages(visitorID, day), float64(views), page)
	pipe.HSet(ctx, schema.VisitorMeta(visitorID), map[string]any{
		"ip":       ip,
		"country":  country,
		"city":     "Rome",
		"referrer": "news.ycombinator.com",
		"lastSeen": time.Now().UTC().Format(time.RFC3339),
	})
	pipe.LPush(ctx, schema.RecentVisitors(), visitorID)
	if _, err := pipe.Exec(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestQuery_RoundTrip(t *testing.T) {
	ctx := context.Background()
	engine, client, schema := newIntegrationEngine(t)

	today := keys.DayBucket(time.Now())
	yesterday := keys.DayBucket(time.Now().AddDate(0, 0, -1))

	seedDay(t, client, schema, yesterday, "visitor-a", "93.184.216.34", "Italy", "/gallery", 3)
	seedDay(t, client, schema, today, "visitor-a", "93.184.216.34", "italy", "/gallery", 2)
	seedDay(t, client, schema, today, "visitor-b", "192.168.1.20", "Italy", "/about", 1)

	snap, err := engine.Query(ctx, Options{From: yesterday, To: today})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if snap.Overview.Views != 6 {
		t.Errorf("total views = %d, want 6", snap.Overview.Views)
	}
	if snap.Overview.Visitors != 2 {
		t.Errorf("unique visitors = %d, want 2", snap.Overview.Visitors)
	}

	if len(snap.Data.Chart) != 2 {
		t.Fatalf("chart has %d points, want 2", len(snap.Data.Chart))
	}
	if snap.Data.Chart[0].Date != yesterday || snap.Data.Chart[0].Views != 3 {
		t.Errorf("unexpected first chart point %+v", snap.Data.Chart[0])
	}

	// "Italy" (4) and "italy" (2) merge under the dominant casing.
	if len(snap.Data.Countries) != 1 {
		t.Fatalf("countries = %v, want single merged entry", snap.Data.Countries)
	}
	if snap.Data.Countries[0].Name != "Italy" || snap.Data.Countries[0].Value != 6 {
		t.Errorf("merged country = %+v, want {Italy 6}", snap.Data.Countries[0])
	}

	if len(snap.Data.Pages) != 2 || snap.Data.Pages[0].Name != "/gallery" || snap.Data.Pages[0].Value != 5 {
		t.Errorf("unexpected pages %v", snap.Data.Pages)
	}

	// visitor-b sits behind a private address and must be hidden from
	// both the top and recent listings.
	for _, v := range snap.Data.TopVisitors {
		if v.ID == "visitor-b" {
			t.Error("private-address visitor present in top visitors")
		}
	}
	for _, v := range snap.Data.RecentVisitors {
		if v.ID == "visitor-b" {
			t.Error("private-address visitor present in recent visitors")
		}
	}
}

func TestQuery_AllRangeStartsAtEarliestBucket(t *testing.T) {
	ctx := context.Background()
	engine, client, schema := newIntegrationEngine(t)

	earliest := keys.DayBucket(time.Now().AddDate(0, 0, -5))
	seedDay(t, client, schema, earliest, "visitor-a", "93.184.216.34", "Italy", "/", 1)

	snap, err := engine.Query(ctx, Options{From: RangeAll})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(snap.Data.Chart) == 0 {
		t.Fatal("expected non-empty chart")
	}
	if snap.Data.Chart[0].Date != earliest {
		t.Errorf("range starts at %s, want earliest bucket %s", snap.Data.Chart[0].Date, earliest)
	}
	if snap.Overview.Views != 1 {
		t.Errorf("total views = %d, want 1", snap.Overview.Views)
	}
}

func TestQuery_VisitorFilter(t *testing.T) {
	ctx := context.Background()
	engine, client, schema := newIntegrationEngine(t)

	today := keys.DayBucket(time.Now())
	seedDay(t, client, schema, today, "visitor-a", "93.184.216.34", "Italy", "/gallery", 4)
	seedDay(t, client, schema, today, "visitor-b", "203.0.113.9", "France", "/about", 9)

	snap, err := engine.Query(ctx, Options{From: today, To: today, VisitorID: "visitor-a"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(snap.Data.Pages) != 1 || snap.Data.Pages[0].Name != "/gallery" {
		t.Fatalf("pages scoped to visitor = %v, want only /gallery", snap.Data.Pages)
	}
	if len(snap.Data.Referrers) != 1 || snap.Data.Referrers[0].Name != "news.ycombinator.com" {
		t.Errorf("referrers = %v, want the visitor's stored referrer", snap.Data.Referrers)
	}
}

func TestQuery_RecentVisitorSearch(t *testing.T) {
	ctx := context.Background()
	engine, client, schema := newIntegrationEngine(t)

	today := keys.DayBucket(time.Now())
	seedDay(t, client, schema, today, "visitor-a", "93.184.216.34", "Italy", "/", 1)
	seedDay(t, client, schema, today, "visitor-b", "203.0.113.9", "France", "/", 1)

	snap, err := engine.Query(ctx, Options{From: today, To: today, Search: "france"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(snap.Data.RecentVisitors) != 1 || snap.Data.RecentVisitors[0].ID != "visitor-b" {
		t.Errorf("search result = %+v, want only visitor-b", snap.Data.RecentVisitors)
	}
	if snap.Data.Pagination.Total != 1 {
		t.Errorf("search pagination total = %d, want 1", snap.Data.Pagination.Total)
	}
}
