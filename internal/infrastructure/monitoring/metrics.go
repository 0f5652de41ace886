package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sentrasec/sentra/pkg/constants"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	ActivitiesIngested *prometheus.CounterVec
	IngestLatency      *prometheus.HistogramVec
	ScoreDeltas        *prometheus.CounterVec
	NotificationsSent  prometheus.Counter
	ThreatsDetected    *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
	ExplainLatency     *prometheus.HistogramVec
	PredictionReviews  *prometheus.CounterVec
	FeedRefreshes      prometheus.Counter
}

// NewMetrics creates and registers the Prometheus metrics on reg.
// Tests pass a fresh registry; the server passes the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActivitiesIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentra_activities_ingested_total",
				Help: "Total number of activity ingestion requests.",
			},
			[]string{"activity_type", "result"},
		),
		IngestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentra_ingest_latency_seconds",
				Help:    "Latency of activity ingestion requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"activity_type"},
		),
		ScoreDeltas: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentra_score_deltas_total",
				Help: "Total number of security score mutations.",
			},
			[]string{"direction"},
		),
		NotificationsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sentra_notifications_created_total",
				Help: "Total number of security notifications created.",
			},
		),
		ThreatsDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentra_threats_detected_total",
				Help: "Total number of threat detections created.",
			},
			[]string{"risk_level"},
		),
		SideEffectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentra_side_effect_failures_total",
				Help: "Best-effort side effects that failed after the activity commit.",
			},
			[]string{"effect"},
		),
		ExplainLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentra_explain_latency_seconds",
				Help:    "Latency of external explanation requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		PredictionReviews: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentra_prediction_reviews_total",
				Help: "Total number of ML prediction review attempts.",
			},
			[]string{"result"},
		),
		FeedRefreshes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sentra_feed_refreshes_total",
				Help: "Total number of prediction feed refresh triggers handled.",
			},
		),
	}
}

// RecordIngest records metrics for one ingestion request.
func (m *Metrics) RecordIngest(activityType constants.ActivityType, result string, duration time.Duration) {
	m.ActivitiesIngested.WithLabelValues(string(activityType), result).Inc()
	m.IngestLatency.WithLabelValues(string(activityType)).Observe(duration.Seconds())
}

// RecordScoreDelta records one applied score mutation.
func (m *Metrics) RecordScoreDelta(delta int) {
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	m.ScoreDeltas.WithLabelValues(direction).Inc()
}

// RecordThreatDetected records a created threat detection.
func (m *Metrics) RecordThreatDetected(level constants.RiskLevel) {
	m.ThreatsDetected.WithLabelValues(string(level)).Inc()
}

// RecordSideEffectFailure records a failed best-effort side effect.
func (m *Metrics) RecordSideEffectFailure(effect string) {
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

// RecordExplain records one explanation request.
func (m *Metrics) RecordExplain(outcome string, duration time.Duration) {
	m.ExplainLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordReview records one review attempt.
func (m *Metrics) RecordReview(result string) {
	m.PredictionReviews.WithLabelValues(result).Inc()
}
