package query

import (
	"testing"
	"time"
)

func TestDayList(t *testing.T) {
	days, err := dayList("2025-06-28", "2025-07-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2025-06-28", "2025-06-29", "2025-06-30", "2025-07-01", "2025-07-02"}
	if len(days) != len(want) {
		t.Fatalf("got %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %q, want %q", i, days[i], want[i])
		}
	}
}

func TestDayList_SingleDay(t *testing.T) {
	days, err := dayList("2025-06-01", "2025-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 || days[0] != "2025-06-01" {
		t.Errorf("got %v, want [2025-06-01]", days)
	}
}

func TestDayList_Invalid(t *testing.T) {
	if _, err := dayList("2025-06-02", "2025-06-01"); err == nil {
		t.Error("expected error for reversed range")
	}
	if _, err := dayList("junk", "2025-06-01"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestHourList_UTC(t *testing.T) {
	buckets, err := hourList("2025-06-01", "2025-06-01", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 24 {
		t.Fatalf("expected 24 hour buckets for one UTC day, got %d", len(buckets))
	}
	if buckets[0].Key != "2025-06-01T00" {
		t.Errorf("first bucket %q, want 2025-06-01T00", buckets[0].Key)
	}
	if buckets[23].Key != "2025-06-01T23" {
		t.Errorf("last bucket %q, want 2025-06-01T23", buckets[23].Key)
	}
}

func TestHourList_ZoneShift(t *testing.T) {
	// One local day in Los Angeles (UTC-7 in June) spans two UTC days:
	// 2025-06-01 00:00 PDT is 2025-06-01T07 UTC, and the local day runs
	// through 2025-06-02T06 UTC. No hour may be dropped or duplicated
	// across the UTC midnight boundary.
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("time zone database unavailable: %v", err)
	}

	buckets, err := hourList("2025-06-01", "2025-06-01", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 24 {
		t.Fatalf("expected 24 hour buckets for one local day, got %d", len(buckets))
	}

	if buckets[0].Key != "2025-06-01T07" {
		t.Errorf("first bucket %q, want 2025-06-01T07", buckets[0].Key)
	}
	if buckets[23].Key != "2025-06-02T06" {
		t.Errorf("last bucket %q, want 2025-06-02T06", buckets[23].Key)
	}

	seen := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		if seen[b.Key] {
			t.Errorf("duplicate hour bucket %q", b.Key)
		}
		seen[b.Key] = true
	}
	// The hour that crosses UTC midnight must be present.
	if !seen["2025-06-02T00"] {
		t.Error("hour bucket at UTC midnight boundary missing")
	}
}

func TestHourList_MultiDay(t *testing.T) {
	buckets, err := hourList("2025-06-01", "2025-06-03", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 72 {
		t.Errorf("expected 72 hour buckets for three days, got %d", len(buckets))
	}
}
