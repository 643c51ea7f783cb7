// Package model defines domain entities for the application.
package model

// Event represents a single page-view event as submitted by the site
// middleware. Events are ephemeral: only their aggregate effects are
// persisted.
type Event struct {
	Path      string `json:"path"`
	VisitorID string `json:"visitorId"`
	IP        string `json:"ip,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// VisitorMetadata is the last-known state of a visitor, overwritten
// wholesale on every event from that visitor.
type VisitorMetadata struct {
	IP        string `json:"ip,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	Referrer  string `json:"referrer,omitempty"` // referrer domain, not full URL
	UserAgent string `json:"userAgent,omitempty"`
	Org       string `json:"org,omitempty"`
	LastSeen  string `json:"lastSeen,omitempty"` // RFC 3339
}

// Unknown is the sentinel stored for missing metadata fields. Ranked
// breakdowns exclude it on the query side.
const Unknown = "unknown"

// AdminPathPrefix marks dashboard pages. Events under it are ignored at
// ingest and excluded from page rankings at query time.
const AdminPathPrefix = "/admin"
