// Package keys defines the deterministic mapping from (metric, dimension,
// time bucket) to key-value store addresses. Both the write pipeline and
// the query engine use these functions verbatim, which is what guarantees
// read/write address agreement without any shared in-memory index.
package keys

import "time"

// Bucket layout strings. All write-side buckets are derived from UTC
// timestamps; the query side re-derives UTC bucket boundaries from the
// caller's time zone for hourly granularity.
const (
	DayLayout  = "2006-01-02"
	HourLayout = "2006-01-02T15"
)

// DayBucket returns the UTC calendar-day bucket for t.
func DayBucket(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// HourBucket returns the UTC calendar-hour bucket for t.
func HourBucket(t time.Time) string {
	return t.UTC().Format(HourLayout)
}

// Schema builds store addresses under a fixed namespace prefix.
// It is a pure value: no randomness, no state, stable across restarts.
type Schema struct {
	prefix string
}

// NewSchema creates a Schema with the given namespace prefix
// (e.g. "analytics").
func NewSchema(prefix string) Schema {
	return Schema{prefix: prefix}
}

// Prefix returns the namespace prefix.
func (s Schema) Prefix() string { return s.prefix }

// Views is the total page-view counter for a day or hour bucket.
func (s Schema) Views(bucket string) string {
	return s.prefix + ":views:" + bucket
}

// Visitors is the unique-visitor HyperLogLog for a day or hour bucket.
func (s Schema) Visitors(bucket string) string {
	return s.prefix + ":visitors:" + bucket
}

// Pages is the global page ranking for a day.
func (s Schema) Pages(day string) string {
	return s.prefix + ":pages:" + day
}

// PagesByCountry is the per-country page ranking for a day.
func (s Schema) PagesByCountry(country, day string) string {
	return s.prefix + ":pages:country:" + country + ":" + day
}

// Countries is the country ranking for a day.
func (s Schema) Countries(day string) string {
	return s.prefix + ":countries:" + day
}

// Cities is the per-country city ranking for a day.
func (s Schema) Cities(country, day string) string {
	return s.prefix + ":cities:" + country + ":" + day
}

// CitiesAll is the global city ranking for a day.
func (s Schema) CitiesAll(day string) string {
	return s.prefix + ":cities:all:" + day
}

// Referrers is the global referrer-domain ranking for a day.
func (s Schema) Referrers(day string) string {
	return s.prefix + ":referrers:" + day
}

// ReferrersByCountry is the per-country referrer-domain ranking for a day.
func (s Schema) ReferrersByCountry(country, day string) string {
	return s.prefix + ":referrers:country:" + country + ":" + day
}

// TopVisitors is the visitor view-count ranking for a day.
func (s Schema) TopVisitors(day string) string {
	return s.prefix + ":visitors:top:" + day
}

// VisitorPages is one visitor's page ranking for a day.
func (s Schema) VisitorPages(visitorID, day string) string {
	return s.prefix + ":visitors:" + visitorID + ":pages:" + day
}

// VisitorMeta is the metadata hash for a visitor.
func (s Schema) VisitorMeta(visitorID string) string {
	return s.prefix + ":visitor:" + visitorID
}

// Identity is the identity label for a visitor.
func (s Schema) Identity(visitorID string) string {
	return s.prefix + ":identity:" + visitorID
}

// KnownIdentities is the set of all identity labels ever recorded.
func (s Schema) KnownIdentities() string {
	return s.prefix + ":known_identities"
}

// RecentVisitors is the bounded global recent-visitors list.
func (s Schema) RecentVisitors() string {
	return s.prefix + ":recent_visitors"
}

// RecentVisitorsByCountry is the bounded per-country recent-visitors list.
func (s Schema) RecentVisitorsByCountry(country string) string {
	return s.prefix + ":recent_visitors:country:" + country
}

// RecentIdentified is the bounded list of identified recent visitors.
func (s Schema) RecentIdentified() string {
	return s.prefix + ":recent_identified_visitors"
}

// Session is an admin dashboard session marker.
func (s Schema) Session(token string) string {
	return s.prefix + ":session:" + token
}
