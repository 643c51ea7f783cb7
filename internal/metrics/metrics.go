// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the analytics pipeline.
type Recorder interface {
	// Ingest metrics
	IncEventTracked()
	IncEventIgnored(reason string) // reason: "admin_path", "loopback", "bot"
	IncEventFailed()
	ObserveTrackDuration(d time.Duration)

	// Query metrics
	IncQuery(status string) // status: "success" or "error"
	ObserveQueryDuration(d time.Duration)

	// Geolocation metrics
	IncGeoLookup(provider, outcome string) // outcome: "success" or "failure"

	// Identity metrics
	IncIdentityRecorded()
}
