package query

import (
	"fmt"
	"time"

	"github.com/visitlog/visitlog/internal/keys"
)

// bucketRef pairs a store bucket key suffix with its chart label.
// For daily buckets the two are equal; for hourly buckets Key is the
// UTC hour bucket and Label the RFC 3339 instant it starts at.
type bucketRef struct {
	Key   string
	Label string
}

// parseDay parses a YYYY-MM-DD string as UTC midnight.
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(keys.DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// dayList returns the inclusive list of day buckets from startYmd
// through endYmd.
func dayList(startYmd, endYmd string) ([]string, error) {
	start, err := parseDay(startYmd)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(endYmd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date range end %s before start %s", endYmd, startYmd)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(keys.DayLayout))
	}
	return days, nil
}

// hourList returns the hour buckets whose local calendar day (in loc)
// falls inside [startYmd, endYmd]. Write-side hour buckets are UTC, so
// the walk covers a ±1 day buffer of UTC instants and keeps the ones
// whose local day is in range; that is what catches the hours that
// cross the UTC day boundary in zones away from UTC.
func hourList(startYmd, endYmd string, loc *time.Location) ([]bucketRef, error) {
	start, err := parseDay(startYmd)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(endYmd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date range end %s before start %s", endYmd, startYmd)
	}

	walkStart := start.AddDate(0, 0, -1)
	walkEnd := end.AddDate(0, 0, 2)

	var buckets []bucketRef
	for t := walkStart; t.Before(walkEnd); t = t.Add(time.Hour) {
		localYmd := t.In(loc).Format(keys.DayLayout)
		if localYmd < startYmd || localYmd > endYmd {
			continue
		}
		buckets = append(buckets, bucketRef{
			Key:   keys.HourBucket(t),
			Label: t.UTC().Format(time.RFC3339),
		})
	}
	return buckets, nil
}
