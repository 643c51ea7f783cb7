package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder backed by Prometheus collectors.
// All operations are thread-safe.
type PrometheusRecorder struct {
	eventsTracked prometheus.Counter
	eventsIgnored *prometheus.CounterVec
	eventsFailed  prometheus.Counter
	trackDuration prometheus.Histogram
	queries       *prometheus.CounterVec
	queryDuration prometheus.Histogram
	geoLookups    *prometheus.CounterVec
	identities    prometheus.Counter
}

// NewPrometheus creates a PrometheusRecorder. Collectors are not
// registered; call Register with a registry.
func NewPrometheus() *PrometheusRecorder {
	return &PrometheusRecorder{
		eventsTracked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_events_tracked_total",
			Help: "Total number of page-view events written to the store",
		}),
		eventsIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_events_ignored_total",
			Help: "Total number of events filtered before any store write",
		}, []string{"reason"}),
		eventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_events_failed_total",
			Help: "Total number of events whose batch submission failed",
		}),
		trackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_track_duration_seconds",
			Help:    "Histogram of ingest durations including geo backfill",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_queries_total",
			Help: "Total number of dashboard queries by status",
		}, []string{"status"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_query_duration_seconds",
			Help:    "Histogram of snapshot assembly durations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_geo_lookups_total",
			Help: "Total number of geolocation lookups by provider and outcome",
		}, []string{"provider", "outcome"}),
		identities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_identities_recorded_total",
			Help: "Total number of identify calls that stored a label",
		}),
	}
}

// Register registers all collectors with the given registry.
func (p *PrometheusRecorder) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		p.eventsTracked,
		p.eventsIgnored,
		p.eventsFailed,
		p.trackDuration,
		p.queries,
		p.queryDuration,
		p.geoLookups,
		p.identities,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncEventTracked increments the tracked-events counter.
func (p *PrometheusRecorder) IncEventTracked() {
	p.eventsTracked.Inc()
}

// IncEventIgnored increments the ignored-events counter for a reason.
func (p *PrometheusRecorder) IncEventIgnored(reason string) {
	p.eventsIgnored.WithLabelValues(reason).Inc()
}

// IncEventFailed increments the failed-events counter.
func (p *PrometheusRecorder) IncEventFailed() {
	p.eventsFailed.Inc()
}

// ObserveTrackDuration records an ingest duration.
func (p *PrometheusRecorder) ObserveTrackDuration(d time.Duration) {
	p.trackDuration.Observe(d.Seconds())
}

// IncQuery increments the query counter for a status.
func (p *PrometheusRecorder) IncQuery(status string) {
	p.queries.WithLabelValues(status).Inc()
}

// ObserveQueryDuration records a query duration.
func (p *PrometheusRecorder) ObserveQueryDuration(d time.Duration) {
	p.queryDuration.Observe(d.Seconds())
}

// IncGeoLookup increments the geo-lookup counter for a provider/outcome.
func (p *PrometheusRecorder) IncGeoLookup(provider, outcome string) {
	p.geoLookups.WithLabelValues(provider, outcome).Inc()
}

// IncIdentityRecorded increments the identities counter.
func (p *PrometheusRecorder) IncIdentityRecorded() {
	p.identities.Inc()
}
