// Package track implements the event ingestor and the batched write
// pipeline that turns one page-view event into its aggregate effects.
package track

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/directory"
	"github.com/visitlog/visitlog/internal/geo"
	"github.com/visitlog/visitlog/internal/identity"
	"github.com/visitlog/visitlog/internal/iputil"
	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/metrics"
	"github.com/visitlog/visitlog/internal/model"
)

// ErrMissingPath rejects events without a path. No store access happens
// for these.
var ErrMissingPath = errors.New("track: missing path")

// botPattern filters crawlers and scanners out of the analytics.
var botPattern = regexp.MustCompile(`(?i)bot|crawler|spider|crawling|headless|prerender|lighthouse|scanner`)

// hourlyTTL bounds hour-bucket keys; daily buckets are kept forever.
const hourlyTTL = 48 * time.Hour

// Tracker validates, normalizes and records page-view events.
//
// All mutations for one event go out in a single pipeline submission.
// The identity lookup and the log-head read happen before the batch is
// built, so two concurrent events from the same visitor can both observe
// stale state; counters and HyperLogLogs are commutative, and the two
// racy reads (identified check, duplicate suppression) are best-effort
// by design.
//
// Recent-log policy: an insert is suppressed when the current log head
// already holds the same visitor id. The log answers "who visited
// recently", where consecutive duplicates carry no information.
type Tracker struct {
	client     *redis.Client
	schema     keys.Schema
	directory  *directory.Directory
	identities *identity.Service
	geo        geo.Resolver
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewTracker creates a Tracker. geoResolver may be nil to disable
// location backfill.
func NewTracker(
	client *redis.Client,
	schema keys.Schema,
	dir *directory.Directory,
	identities *identity.Service,
	geoResolver geo.Resolver,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *Tracker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Tracker{
		client:     client,
		schema:     schema,
		directory:  dir,
		identities: identities,
		geo:        geoResolver,
		logger:     logger.With("component", "track"),
		metrics:    recorder,
		now:        time.Now,
	}
}

// Track records one event. It returns ignored=true for filtered events
// (admin paths, loopback sources, bots), which make zero store writes.
// A returned error means the batch submission itself failed; partial
// application is governed by the store and not compensated.
func (t *Tracker) Track(ctx context.Context, ev model.Event) (ignored bool, err error) {
	start := t.now()
	defer func() {
		t.metrics.ObserveTrackDuration(time.Since(start))
	}()

	if ev.Path == "" {
		return false, ErrMissingPath
	}
	if strings.HasPrefix(ev.Path, model.AdminPathPrefix) {
		t.metrics.IncEventIgnored("admin_path")
		return true, nil
	}
	if iputil.IsLoopback(ev.IP) {
		t.metrics.IncEventIgnored("loopback")
		return true, nil
	}
	if ev.UserAgent != "" && botPattern.MatchString(ev.UserAgent) {
		t.metrics.IncEventIgnored("bot")
		return true, nil
	}

	country := normalizeLocation(ev.Country)
	city := normalizeLocation(ev.City)

	// Best-effort location backfill; failures leave fields unknown.
	var org string
	if (country == "" || city == "") && t.geo != nil && iputil.IsRoutable(ev.IP) {
		if loc, geoErr := t.geo.Resolve(ctx, ev.IP); geoErr == nil {
			if country == "" {
				country = loc.Country
			}
			if city == "" {
				city = loc.City
			}
			org = loc.Org
		}
	}

	referrerDomain := domainOf(ev.Referrer)

	// Pre-batch reads. Both are racy against concurrent events from the
	// same visitor; see type comment.
	var isIdentified bool
	var logHead string
	if ev.VisitorID != "" {
		label, resErr := t.identities.Resolve(ctx, ev.VisitorID)
		if resErr != nil {
			t.logger.Warn("identity lookup failed", slog.String("error", resErr.Error()))
		}
		isIdentified = label != ""

		logHead, resErr = t.directory.Head(ctx)
		if resErr != nil {
			t.logger.Warn("log head read failed", slog.String("error", resErr.Error()))
		}
	}

	now := t.now()
	day := keys.DayBucket(now)
	hour := keys.HourBucket(now)

	pipe := t.client.Pipeline()

	// Total page views, day and hour.
	pipe.Incr(ctx, t.schema.Views(day))
	pipe.Incr(ctx, t.schema.Views(hour))
	pipe.Expire(ctx, t.schema.Views(hour), hourlyTTL)

	if ev.VisitorID != "" {
		// Unique visitors (HyperLogLog), day and hour.
		pipe.PFAdd(ctx, t.schema.Visitors(day), ev.VisitorID)
		pipe.PFAdd(ctx, t.schema.Visitors(hour), ev.VisitorID)
		pipe.Expire(ctx, t.schema.Visitors(hour), hourlyTTL)

		// Visitor rankings.
		pipe.ZIncrBy(ctx, t.schema.TopVisitors(day), 1, ev.VisitorID)
		pipe.ZIncrBy(ctx, t.schema.VisitorPages(ev.VisitorID, day), 1, ev.Path)
	}

	// Page ranking.
	pipe.ZIncrBy(ctx, t.schema.Pages(day), 1, ev.Path)

	if country != "" {
		pipe.ZIncrBy(ctx, t.schema.Countries(day), 1, country)
		pipe.ZIncrBy(ctx, t.schema.PagesByCountry(country, day), 1, ev.Path)
		if city != "" {
			pipe.ZIncrBy(ctx, t.schema.Cities(country, day), 1, city)
			pipe.ZIncrBy(ctx, t.schema.CitiesAll(day), 1, city)
		}
	}

	if referrerDomain != "" {
		pipe.ZIncrBy(ctx, t.schema.Referrers(day), 1, referrerDomain)
		if country != "" {
			pipe.ZIncrBy(ctx, t.schema.ReferrersByCountry(country, day), 1, referrerDomain)
		}
	}

	if ev.VisitorID != "" {
		t.directory.Record(ctx, pipe, ev.VisitorID, model.VisitorMetadata{
			IP:        ev.IP,
			Country:   country,
			City:      city,
			Referrer:  referrerDomain,
			UserAgent: ev.UserAgent,
			Org:       org,
			LastSeen:  now.UTC().Format(time.RFC3339),
		})

		if isIdentified {
			t.directory.AppendIdentified(ctx, pipe, ev.VisitorID)
		}

		hasValidIP := ev.IP != "" && ev.IP != model.Unknown && !iputil.IsLoopback(ev.IP)
		if (isIdentified || hasValidIP || country != "") && logHead != ev.VisitorID {
			t.directory.AppendToLog(ctx, pipe, ev.VisitorID, country)
		}
	}

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		t.metrics.IncEventFailed()
		t.logger.Error("event batch submission failed",
			slog.String("path", ev.Path),
			slog.String("error", execErr.Error()),
		)
		return false, execErr
	}

	t.metrics.IncEventTracked()
	return false, nil
}

// normalizeLocation percent-decodes a location value and maps the
// unknown sentinel to empty.
func normalizeLocation(v string) string {
	if v == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		v = decoded
	}
	if strings.EqualFold(v, model.Unknown) {
		return ""
	}
	return v
}

// domainOf extracts the referrer hostname. Unparseable or schemeless
// values (including the "Direct" sentinel) yield "".
func domainOf(referrer string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
