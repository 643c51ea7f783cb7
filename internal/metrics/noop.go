package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncEventTracked is a no-op.
func (n *NoopRecorder) IncEventTracked() {}

// IncEventIgnored is a no-op.
func (n *NoopRecorder) IncEventIgnored(reason string) {}

// IncEventFailed is a no-op.
func (n *NoopRecorder) IncEventFailed() {}

// ObserveTrackDuration is a no-op.
func (n *NoopRecorder) ObserveTrackDuration(d time.Duration) {}

// IncQuery is a no-op.
func (n *NoopRecorder) IncQuery(status string) {}

// ObserveQueryDuration is a no-op.
func (n *NoopRecorder) ObserveQueryDuration(d time.Duration) {}

// IncGeoLookup is a no-op.
func (n *NoopRecorder) IncGeoLookup(provider, outcome string) {}

// IncIdentityRecorded is a no-op.
func (n *NoopRecorder) IncIdentityRecorded() {}
