package keys

import (
	"testing"
	"time"
)

func TestBuckets(t *testing.T) {
	// 23:30 UTC-5 is already the next day in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2025, 6, 1, 23, 30, 0, 0, loc)

	if got := DayBucket(ts); got != "2025-06-02" {
		t.Errorf("DayBucket = %q, want 2025-06-02", got)
	}
	if got := HourBucket(ts); got != "2025-06-02T04" {
		t.Errorf("HourBucket = %q, want 2025-06-02T04", got)
	}
}

func TestSchemaAddresses(t *testing.T) {
	s := NewSchema("analytics")

	cases := []struct {
		got  string
		want string
	}{
		{s.Views("2025-06-01"), "analytics:views:2025-06-01"},
		{s.Views("2025-06-01T07"), "analytics:views:2025-06-01T07"},
		{s.Visitors("2025-06-01"), "analytics:visitors:2025-06-01"},
		{s.Pages("2025-06-01"), "analytics:pages:2025-06-01"},
		{s.PagesByCountry("Italy", "2025-06-01"), "analytics:pages:country:Italy:2025-06-01"},
		{s.Countries("2025-06-01"), "analytics:countries:2025-06-01"},
		{s.Cities("Italy", "2025-06-01"), "analytics:cities:Italy:2025-06-01"},
		{s.CitiesAll("2025-06-01"), "analytics:cities:all:2025-06-01"},
		{s.Referrers("2025-06-01"), "analytics:referrers:2025-06-01"},
		{s.ReferrersByCountry("Italy", "2025-06-01"), "analytics:referrers:country:Italy:2025-06-01"},
		{s.TopVisitors("2025-06-01"), "analytics:visitors:top:2025-06-01"},
		{s.VisitorPages("abc", "2025-06-01"), "analytics:visitors:abc:pages:2025-06-01"},
		{s.VisitorMeta("abc"), "analytics:visitor:abc"},
		{s.Identity("abc"), "analytics:identity:abc"},
		{s.KnownIdentities(), "analytics:known_identities"},
		{s.RecentVisitors(), "analytics:recent_visitors"},
		{s.RecentVisitorsByCountry("Italy"), "analytics:recent_visitors:country:Italy"},
		{s.RecentIdentified(), "analytics:recent_identified_visitors"},
		{s.Session("tok"), "analytics:session:tok"},
	}

	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestSchemaInjective(t *testing.T) {
	// Distinct (metric, dimension, bucket) triples must map to
	// distinct addresses.
	s := NewSchema("analytics")
	addrs := []string{
		s.Views("2025-06-01"),
		s.Visitors("2025-06-01"),
		s.Pages("2025-06-01"),
		s.Pages("2025-06-02"),
		s.PagesByCountry("Italy", "2025-06-01"),
		s.Cities("Italy", "2025-06-01"),
		s.CitiesAll("2025-06-01"),
		s.Referrers("2025-06-01"),
		s.ReferrersByCountry("Italy", "2025-06-01"),
		s.TopVisitors("2025-06-01"),
		s.VisitorPages("top", "2025-06-01"),
		s.VisitorMeta("abc"),
		s.Identity("abc"),
	}

	seen := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if seen[a] {
			t.Errorf("duplicate address %q", a)
		}
		seen[a] = true
	}
}
