package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerCalls *prometheus.CounterVec
	gapsDetected  *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	rowsPersisted *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "histpull_provider_calls_total",
				Help: "Total number of upstream provider fetches",
			},
			[]string{"kind", "symbol"},
		),
		gapsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "histpull_gaps_detected_total",
				Help: "Total number of coverage gaps detected against the local store",
			},
			[]string{"kind"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "histpull_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"endpoint"},
		),
		rowsPersisted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "histpull_rows_persisted_total",
				Help: "Total number of rows written to the local store",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "histpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "histpull_backfill_duration_seconds",
				Help:    "Duration of backfill operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProviderCall records one upstream fetch.
func (r *Recorder) RecordProviderCall(kind, symbol string) {
	r.providerCalls.WithLabelValues(kind, symbol).Inc()
}

// RecordGapsDetected records gaps found for a request.
func (r *Recorder) RecordGapsDetected(kind string, n int) {
	r.gapsDetected.WithLabelValues(kind).Add(float64(n))
}

// RecordCacheHit records a response cache hit.
func (r *Recorder) RecordCacheHit(endpoint string) {
	r.cacheHits.WithLabelValues(endpoint).Inc()
}

// RecordRowsPersisted records rows written to the store.
func (r *Recorder) RecordRowsPersisted(kind string, n int) {
	r.rowsPersisted.WithLabelValues(kind).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
