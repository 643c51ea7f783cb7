// Package query implements the aggregation engine that reconstructs
// dashboard snapshots from the per-bucket aggregates the write pipeline
// maintains. It shares the key schema with the tracker and performs all
// cross-bucket merging client-side; the store has no native multi-key
// rank merge.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visitlog/visitlog/internal/directory"
	"github.com/visitlog/visitlog/internal/iputil"
	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/metrics"
	"github.com/visitlog/visitlog/internal/model"
)

// Granularity values for Options.
const (
	GranularityDay  = "day"
	GranularityHour = "hour"
)

// RangeAll is the From sentinel meaning "from the first bucket ever
// observed through today".
const RangeAll = "all"

const (
	// topN caps every ranked breakdown.
	topN = 50

	// fallbackLookbackDays is used for RangeAll when no daily bucket
	// exists yet.
	fallbackLookbackDays = 30

	defaultVisitorLimit = 10
)

// Options selects the slice of analytics to materialize.
type Options struct {
	From        string // YYYY-MM-DD, RangeAll, or empty for today
	To          string // YYYY-MM-DD or empty for today
	Granularity string // GranularityDay (default) or GranularityHour
	Country     string // scope breakdowns to one country
	VisitorID   string // scope pages/referrers to one visitor
	Search      string // substring filter over recent visitors
	Location    *time.Location
	VisitorPage  int
	VisitorLimit int
}

// Engine answers dashboard queries against the shared store.
type Engine struct {
	client    *redis.Client
	schema    keys.Schema
	directory *directory.Directory
	logger    *slog.Logger
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(
	client *redis.Client,
	schema keys.Schema,
	dir *directory.Directory,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *Engine {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Engine{
		client:    client,
		schema:    schema,
		directory: dir,
		logger:    logger.With("component", "query"),
		metrics:   recorder,
		now:       time.Now,
	}
}

// Query materializes an AnalyticsSnapshot for opts. Any store failure
// propagates; no partial snapshot is returned.
func (e *Engine) Query(ctx context.Context, opts Options) (*model.AnalyticsSnapshot, error) {
	start := time.Now()
	snap, err := e.snapshot(ctx, opts)
	if err != nil {
		e.metrics.IncQuery("error")
	} else {
		e.metrics.IncQuery("success")
	}
	e.metrics.ObserveQueryDuration(time.Since(start))
	return snap, err
}

func (e *Engine) snapshot(ctx context.Context, opts Options) (*model.AnalyticsSnapshot, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	page := opts.VisitorPage
	if page < 1 {
		page = 1
	}
	limit := opts.VisitorLimit
	if limit < 1 {
		limit = defaultVisitorLimit
	}

	startYmd, endYmd, err := e.resolveRange(ctx, opts.From, opts.To, loc)
	if err != nil {
		return nil, err
	}

	days, err := dayList(startYmd, endYmd)
	if err != nil {
		return nil, err
	}

	// Overview totals come from daily buckets only; summing hour
	// buckets on top would double count.
	totalViews, err := e.sumDailyViews(ctx, days)
	if err != nil {
		return nil, err
	}
	uniqueVisitors, err := e.unionVisitors(ctx, days)
	if err != nil {
		return nil, err
	}

	chart, err := e.chart(ctx, days, startYmd, endYmd, opts.Granularity, loc)
	if err != nil {
		return nil, err
	}

	pages, err := e.rankedFamily(ctx, e.pageKeys(days, opts))
	if err != nil {
		return nil, err
	}
	countries, err := e.rankedFamily(ctx, mapDays(days, e.schema.Countries))
	if err != nil {
		return nil, err
	}
	cities, err := e.rankedFamily(ctx, e.cityKeys(days, opts))
	if err != nil {
		return nil, err
	}
	referrers, err := e.referrers(ctx, days, opts)
	if err != nil {
		return nil, err
	}

	topVisitors, err := e.topVisitors(ctx, days, opts.Country)
	if err != nil {
		return nil, err
	}

	recent, pagination, err := e.recentVisitors(ctx, opts.Country, opts.Search, page, limit)
	if err != nil {
		return nil, err
	}

	return &model.AnalyticsSnapshot{
		Overview: model.Overview{
			Views:    totalViews,
			Visitors: uniqueVisitors,
		},
		Data: model.SnapshotData{
			Chart:          chart,
			Pages:          toRankedEntries(pages),
			Countries:      toRankedEntries(countries),
			Cities:         toRankedEntries(cities),
			Referrers:      toRankedEntries(referrers),
			TopVisitors:    topVisitors,
			RecentVisitors: recent,
			Pagination:     pagination,
		},
	}, nil
}

// resolveRange turns the caller's from/to into concrete day bounds.
func (e *Engine) resolveRange(ctx context.Context, from, to string, loc *time.Location) (string, string, error) {
	today := e.now().In(loc).Format(keys.DayLayout)

	if from == RangeAll {
		earliest, err := e.earliestDay(ctx)
		if err != nil {
			return "", "", fmt.Errorf("discover earliest bucket: %w", err)
		}
		if earliest == "" {
			earliest = e.now().In(loc).AddDate(0, 0, -fallbackLookbackDays).Format(keys.DayLayout)
			e.logger.Debug("no daily buckets found, using lookback window",
				slog.String("from", earliest),
			)
		}
		end := today
		if end < earliest {
			// An earliest bucket written on the UTC day ahead of the
			// caller's local today.
			end = earliest
		}
		return earliest, end, nil
	}

	if from == "" {
		from = today
	}
	if to == "" {
		to = today
	}
	return from, to, nil
}

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// earliestDay enumerates stored daily view counters and returns the
// smallest date suffix; date strings sort lexicographically in date
// order. Returns "" when no daily bucket exists.
func (e *Engine) earliestDay(ctx context.Context) (string, error) {
	pattern := e.schema.Views("*")
	prefix := e.schema.Views("")

	var earliest string
	var cursor uint64
	for {
		batch, next, err := e.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return "", fmt.Errorf("scan view keys: %w", err)
		}
		for _, key := range batch {
			suffix := strings.TrimPrefix(key, prefix)
			if !dayKeyPattern.MatchString(suffix) {
				continue // hourly bucket
			}
			if earliest == "" || suffix < earliest {
				earliest = suffix
			}
		}
		cursor = next
		if cursor == 0 {
			return earliest, nil
		}
	}
}

func (e *Engine) sumDailyViews(ctx context.Context, days []string) (int64, error) {
	if len(days) == 0 {
		return 0, nil
	}
	values, err := e.client.MGet(ctx, mapDays(days, e.schema.Views)...).Result()
	if err != nil {
		return 0, fmt.Errorf("read daily views: %w", err)
	}

	var total int64
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // missing bucket
		}
		n, convErr := strconv.ParseInt(s, 10, 64)
		if convErr != nil {
			continue
		}
		total += n
	}
	return total, nil
}

func (e *Engine) unionVisitors(ctx context.Context, days []string) (int64, error) {
	if len(days) == 0 {
		return 0, nil
	}
	count, err := e.client.PFCount(ctx, mapDays(days, e.schema.Visitors)...).Result()
	if err != nil {
		return 0, fmt.Errorf("count unique visitors: %w", err)
	}
	return count, nil
}

// chart builds the zero-filled time series at the requested granularity.
func (e *Engine) chart(ctx context.Context, days []string, startYmd, endYmd, granularity string, loc *time.Location) ([]model.ChartPoint, error) {
	var refs []bucketRef
	if granularity == GranularityHour {
		hours, err := hourList(startYmd, endYmd, loc)
		if err != nil {
			return nil, err
		}
		refs = hours
	} else {
		refs = make([]bucketRef, len(days))
		for i, d := range days {
			refs[i] = bucketRef{Key: d, Label: d}
		}
	}

	points := make([]model.ChartPoint, 0, len(refs))
	if len(refs) == 0 {
		return points, nil
	}

	pipe := e.client.Pipeline()
	viewCmds := make([]*redis.StringCmd, len(refs))
	visitorCmds := make([]*redis.IntCmd, len(refs))
	for i, ref := range refs {
		viewCmds[i] = pipe.Get(ctx, e.schema.Views(ref.Key))
		visitorCmds[i] = pipe.PFCount(ctx, e.schema.Visitors(ref.Key))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read chart buckets: %w", err)
	}

	for i, ref := range refs {
		views, err := viewCmds[i].Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("read views for %s: %w", ref.Key, err)
		}
		points = append(points, model.ChartPoint{
			Date:     ref.Label,
			Views:    views,
			Visitors: visitorCmds[i].Val(),
		})
	}
	return points, nil
}

// rankedFamily fetches every bucket of one dimension family in a single
// round trip and merges them.
func (e *Engine) rankedFamily(ctx context.Context, bucketKeys []string) ([]Member, error) {
	buckets, err := e.fetchRanked(ctx, bucketKeys)
	if err != nil {
		return nil, err
	}
	return MergeRankedBuckets(buckets, topN), nil
}

func (e *Engine) fetchRanked(ctx context.Context, bucketKeys []string) ([][]Member, error) {
	if len(bucketKeys) == 0 {
		return nil, nil
	}

	pipe := e.client.Pipeline()
	cmds := make([]*redis.ZSliceCmd, len(bucketKeys))
	for i, k := range bucketKeys {
		cmds[i] = pipe.ZRevRangeWithScores(ctx, k, 0, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read ranked buckets: %w", err)
	}

	buckets := make([][]Member, len(cmds))
	for i, cmd := range cmds {
		zs, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("read ranked bucket %s: %w", bucketKeys[i], err)
		}
		members := make([]Member, 0, len(zs))
		for _, z := range zs {
			value, ok := z.Member.(string)
			if !ok {
				continue
			}
			members = append(members, Member{Value: value, Score: z.Score})
		}
		buckets[i] = members
	}
	return buckets, nil
}

// pageKeys selects the page-rank family: a visitor filter redirects to
// that visitor's own page ranking, a country filter to the per-country
// family, otherwise the global one.
func (e *Engine) pageKeys(days []string, opts Options) []string {
	switch {
	case opts.VisitorID != "":
		return mapDays(days, func(d string) string {
			return e.schema.VisitorPages(opts.VisitorID, d)
		})
	case opts.Country != "":
		return mapDays(days, func(d string) string {
			return e.schema.PagesByCountry(opts.Country, d)
		})
	default:
		return mapDays(days, e.schema.Pages)
	}
}

func (e *Engine) cityKeys(days []string, opts Options) []string {
	if opts.Country != "" {
		return mapDays(days, func(d string) string {
			return e.schema.Cities(opts.Country, d)
		})
	}
	return mapDays(days, e.schema.CitiesAll)
}

// referrers resolves the referrer breakdown. A visitor filter collapses
// it to that visitor's single stored referrer domain.
func (e *Engine) referrers(ctx context.Context, days []string, opts Options) ([]Member, error) {
	if opts.VisitorID != "" {
		meta, err := e.directory.Metadata(ctx, opts.VisitorID)
		if err != nil {
			return nil, err
		}
		if meta.Referrer == "" || strings.EqualFold(meta.Referrer, model.Unknown) {
			return nil, nil
		}
		return []Member{{Value: meta.Referrer, Score: 1}}, nil
	}

	var bucketKeys []string
	if opts.Country != "" {
		bucketKeys = mapDays(days, func(d string) string {
			return e.schema.ReferrersByCountry(opts.Country, d)
		})
	} else {
		bucketKeys = mapDays(days, e.schema.Referrers)
	}
	return e.rankedFamily(ctx, bucketKeys)
}

func mapDays(days []string, f func(string) string) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = f(d)
	}
	return out
}

func toRankedEntries(members []Member) []model.RankedEntry {
	entries := make([]model.RankedEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, model.RankedEntry{Name: m.Value, Value: int64(m.Score)})
	}
	return entries
}

// topVisitors merges the per-day visitor rankings, joins metadata and
// identity, and filters loopback/private sources. The filter runs after
// ranking: a hidden visitor's views still count toward totals, which is
// accepted skew.
func (e *Engine) topVisitors(ctx context.Context, days []string, countryFilter string) ([]model.TopVisitor, error) {
	merged, err := e.rankedFamily(ctx, mapDays(days, e.schema.TopVisitors))
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return []model.TopVisitor{}, nil
	}

	ids := make([]string, len(merged))
	for i, m := range merged {
		ids[i] = m.Value
	}
	metas, labels, err := e.joinVisitors(ctx, ids)
	if err != nil {
		return nil, err
	}

	visitors := make([]model.TopVisitor, 0, len(merged))
	for i, m := range merged {
		meta := metas[i]
		if iputil.IsLoopbackOrPrivate(meta.IP) {
			continue
		}
		if countryFilter != "" && meta.Country != countryFilter {
			continue
		}
		visitors = append(visitors, model.TopVisitor{
			ID:       m.Value,
			Value:    int64(m.Score),
			Email:    labels[i],
			IP:       meta.IP,
			Country:  meta.Country,
			City:     meta.City,
			Referrer: meta.Referrer,
			Org:      meta.Org,
		})
	}
	return visitors, nil
}

// joinVisitors fetches metadata and identity labels for a batch of
// visitor ids in one round trip.
func (e *Engine) joinVisitors(ctx context.Context, ids []string) ([]model.VisitorMetadata, []string, error) {
	pipe := e.client.Pipeline()
	metaCmds := make([]*redis.MapStringStringCmd, len(ids))
	labelCmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		metaCmds[i] = pipe.HGetAll(ctx, e.schema.VisitorMeta(id))
		labelCmds[i] = pipe.Get(ctx, e.schema.Identity(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, fmt.Errorf("join visitor records: %w", err)
	}

	metas := make([]model.VisitorMetadata, len(ids))
	labels := make([]string, len(ids))
	for i := range ids {
		fields, err := metaCmds[i].Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, nil, fmt.Errorf("read metadata for %s: %w", ids[i], err)
		}
		metas[i] = model.VisitorMetadata{
			IP:        fields["ip"],
			Country:   fields["country"],
			City:      fields["city"],
			Referrer:  fields["referrer"],
			UserAgent: fields["userAgent"],
			Org:       fields["org"],
			LastSeen:  fields["lastSeen"],
		}
		label, err := labelCmds[i].Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, nil, fmt.Errorf("read identity for %s: %w", ids[i], err)
		}
		labels[i] = label
	}
	return metas, labels, nil
}
