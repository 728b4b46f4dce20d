package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exposes metrics through a Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	logins            *prometheus.CounterVec
	assessments       *prometheus.CounterVec
	referrals         prometheus.Counter
	voiceRequests     *prometheus.CounterVec
	callsStarted      prometheus.Counter
	callsCompleted    prometheus.Counter
	syncUploads       *prometheus.CounterVec
	syncQueueDepth    prometheus.Gauge
	syncBatchDuration prometheus.Histogram
}

// NewPrometheus returns a Recorder backed by its own Prometheus registry.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusRecorder{
		registry: registry,
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asha_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"status"}),
		assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asha_assessments_total",
			Help: "Health assessments performed, by source engine.",
		}, []string{"source"}),
		referrals: factory.NewCounter(prometheus.CounterOpts{
			Name: "asha_referrals_total",
			Help: "Assessments that flagged a referral.",
		}),
		voiceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asha_voice_requests_total",
			Help: "Voice endpoint requests by kind.",
		}, []string{"kind"}),
		callsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "asha_calls_started_total",
			Help: "Calls started.",
		}),
		callsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "asha_calls_completed_total",
			Help: "Calls completed.",
		}),
		syncUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asha_sync_uploads_total",
			Help: "Sync upload attempts by outcome.",
		}, []string{"status"}),
		syncQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "asha_sync_queue_depth",
			Help: "Records waiting in the sync queue.",
		}),
		syncBatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "asha_sync_batch_duration_seconds",
			Help:    "Duration of sync batch processing.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns an http.Handler serving the metrics endpoint.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncLogin increments the login counter for the given status.
func (p *PrometheusRecorder) IncLogin(status string) {
	p.logins.WithLabelValues(status).Inc()
}

// IncAssessment increments the assessment counter for the given source.
func (p *PrometheusRecorder) IncAssessment(source string) {
	p.assessments.WithLabelValues(source).Inc()
}

// IncReferral increments the referral counter.
func (p *PrometheusRecorder) IncReferral() {
	p.referrals.Inc()
}

// IncVoiceRequest increments the voice request counter for the given kind.
func (p *PrometheusRecorder) IncVoiceRequest(kind string) {
	p.voiceRequests.WithLabelValues(kind).Inc()
}

// IncCallStarted increments the calls started counter.
func (p *PrometheusRecorder) IncCallStarted() {
	p.callsStarted.Inc()
}

// IncCallCompleted increments the calls completed counter.
func (p *PrometheusRecorder) IncCallCompleted() {
	p.callsCompleted.Inc()
}

// IncSyncUpload increments the sync upload counter for the given status.
func (p *PrometheusRecorder) IncSyncUpload(status string) {
	p.syncUploads.WithLabelValues(status).Inc()
}

// SetSyncQueueDepth records the current queue depth.
func (p *PrometheusRecorder) SetSyncQueueDepth(depth int64) {
	p.syncQueueDepth.Set(float64(depth))
}

// ObserveSyncBatchDuration records one sync batch duration.
func (p *PrometheusRecorder) ObserveSyncBatchDuration(duration time.Duration) {
	p.syncBatchDuration.Observe(duration.Seconds())
}
