package model

// AnalyticsSnapshot is the full dashboard query response.
type AnalyticsSnapshot struct {
	Overview Overview     `json:"overview"`
	Data     SnapshotData `json:"data"`
}

// Overview holds range-wide totals.
type Overview struct {
	Views    int64 `json:"views"`
	Visitors int64 `json:"visitors"` // approximate (HyperLogLog union)
}

// SnapshotData holds the per-dimension breakdowns.
type SnapshotData struct {
	Chart          []ChartPoint    `json:"chart"`
	Pages          []RankedEntry   `json:"pages"`
	Countries      []RankedEntry   `json:"countries"`
	Cities         []RankedEntry   `json:"cities"`
	Referrers      []RankedEntry   `json:"referrers"`
	TopVisitors    []TopVisitor    `json:"topVisitors"`
	RecentVisitors []RecentVisitor `json:"recentVisitors"`
	Pagination     Pagination      `json:"pagination"`
}

// ChartPoint is one time-series bucket. Date is the bucket label:
// YYYY-MM-DD for daily granularity, RFC 3339 for hourly.
type ChartPoint struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Visitors int64  `json:"visitors"`
}

// RankedEntry is one member of a ranked breakdown.
type RankedEntry struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// TopVisitor is a ranked visitor joined with metadata and identity.
type TopVisitor struct {
	ID       string `json:"id"`
	Value    int64  `json:"value"` // view count over the range
	Email    string `json:"email,omitempty"`
	IP       string `json:"ip,omitempty"`
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Referrer string `json:"referrer,omitempty"`
	Org      string `json:"org,omitempty"`
}

// RecentVisitor is one entry of the paginated recent-visitors list.
type RecentVisitor struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	IP        string `json:"ip,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Org       string `json:"org,omitempty"`
	LastSeen  string `json:"lastSeen,omitempty"`
}

// Pagination describes the recent-visitors page window.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}
