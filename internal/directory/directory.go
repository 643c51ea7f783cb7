// Package directory maintains visitor metadata records and the bounded,
// most-recent-first visitor logs.
package directory

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/model"
)

// Log bounds. Lists are trimmed back to these lengths after every insert,
// so the length invariant holds regardless of traffic.
const (
	MaxRecentGlobal  = 5000
	MaxRecentCountry = 1000
)

// Directory provides read access to visitor records and builds the
// write-side commands for the tracker's batch pipeline.
type Directory struct {
	client *redis.Client
	schema keys.Schema
}

// New creates a Directory.
func New(client *redis.Client, schema keys.Schema) *Directory {
	return &Directory{client: client, schema: schema}
}

// Record queues a wholesale overwrite of the visitor's metadata record
// on pipe. No history is retained beyond last-seen state.
func (d *Directory) Record(ctx context.Context, pipe redis.Pipeliner, visitorID string, meta model.VisitorMetadata) {
	fields := map[string]any{
		"ip":        orUnknown(meta.IP),
		"country":   orUnknown(meta.Country),
		"city":      orUnknown(meta.City),
		"referrer":  orUnknown(meta.Referrer),
		"userAgent": orUnknown(meta.UserAgent),
		"lastSeen":  meta.LastSeen,
	}
	if meta.Org != "" {
		fields["org"] = meta.Org
	}
	pipe.HSet(ctx, d.schema.VisitorMeta(visitorID), fields)
}

// AppendToLog queues a head insert into the global recent-visitors log
// and, when country is known, the per-country log, trimming both to
// their bounds.
func (d *Directory) AppendToLog(ctx context.Context, pipe redis.Pipeliner, visitorID, country string) {
	global := d.schema.RecentVisitors()
	pipe.LPush(ctx, global, visitorID)
	pipe.LTrim(ctx, global, 0, MaxRecentGlobal-1)

	if country != "" && country != model.Unknown {
		perCountry := d.schema.RecentVisitorsByCountry(country)
		pipe.LPush(ctx, perCountry, visitorID)
		pipe.LTrim(ctx, perCountry, 0, MaxRecentCountry-1)
	}
}

// AppendIdentified queues a head insert into the identified-visitors log.
func (d *Directory) AppendIdentified(ctx context.Context, pipe redis.Pipeliner, visitorID string) {
	key := d.schema.RecentIdentified()
	pipe.LPush(ctx, key, visitorID)
	pipe.LTrim(ctx, key, 0, MaxRecentGlobal-1)
}

// Head returns the most recent global log entry, or "" when the log is
// empty. The tracker reads it to suppress immediate duplicates.
func (d *Directory) Head(ctx context.Context) (string, error) {
	head, err := d.client.LIndex(ctx, d.schema.RecentVisitors(), 0).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read log head: %w", err)
	}
	return head, nil
}

// Len returns the length of the global log, or of the per-country log
// when country is non-empty. Pagination uses it without scanning.
func (d *Directory) Len(ctx context.Context, country string) (int64, error) {
	n, err := d.client.LLen(ctx, d.logKey(country)).Result()
	if err != nil {
		return 0, fmt.Errorf("log length: %w", err)
	}
	return n, nil
}

// List returns log entries [start, stop] (inclusive, LRANGE semantics)
// from the global or per-country log.
func (d *Directory) List(ctx context.Context, country string, start, stop int64) ([]string, error) {
	ids, err := d.client.LRange(ctx, d.logKey(country), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list log: %w", err)
	}
	return ids, nil
}

// Metadata returns the stored record for a visitor. Missing records
// yield a zero VisitorMetadata, not an error.
func (d *Directory) Metadata(ctx context.Context, visitorID string) (model.VisitorMetadata, error) {
	fields, err := d.client.HGetAll(ctx, d.schema.VisitorMeta(visitorID)).Result()
	if err != nil {
		return model.VisitorMetadata{}, fmt.Errorf("read visitor metadata: %w", err)
	}
	return model.VisitorMetadata{
		IP:        fields["ip"],
		Country:   fields["country"],
		City:      fields["city"],
		Referrer:  fields["referrer"],
		UserAgent: fields["userAgent"],
		Org:       fields["org"],
		LastSeen:  fields["lastSeen"],
	}, nil
}

func (d *Directory) logKey(country string) string {
	if country != "" {
		return d.schema.RecentVisitorsByCountry(country)
	}
	return d.schema.RecentVisitors()
}

func orUnknown(v string) string {
	if v == "" {
		return model.Unknown
	}
	return v
}
