// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_interview_orchestrator"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter
	EventsDropped      prometheus.Counter

	// Channel metrics
	ChannelErrors prometheus.Counter

	// Finalization metrics
	FinalizationsTotal   *prometheus.CounterVec
	DuplicateCompletions prometheus.Counter
	FinalizationLatency  prometheus.Histogram

	// Scoring metrics
	ScoringLatency *prometheus.HistogramVec
	ScoringErrors  *prometheus.CounterVec

	// Store metrics
	StoreOpLatency *prometheus.HistogramVec
	StoreOpErrors  *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of sessions from start to reported completion",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}),

		// Transcript metrics
		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of partial transcript events consumed",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcript events consumed",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped after the call ended",
		}),

		// Channel metrics
		ChannelErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_errors_total",
			Help:      "Total number of runtime voice channel errors",
		}),

		// Finalization metrics
		FinalizationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalizations_total",
			Help:      "Total number of session finalizations",
		}, []string{"outcome"}),
		DuplicateCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_completions_total",
			Help:      "Total number of duplicate completion signals absorbed by the latch",
		}),
		FinalizationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finalization_latency_seconds",
			Help:      "Time from call end to reported result",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		// Scoring metrics
		ScoringLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_latency_seconds",
			Help:      "Structured-generation call latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"backend"}),
		ScoringErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_errors_total",
			Help:      "Total number of scoring failures",
		}, []string{"backend", "error_type"}),

		// Store metrics
		StoreOpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_op_latency_seconds",
			Help:      "Document store operation latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		StoreOpErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_op_errors_total",
			Help:      "Total number of document store errors",
		}, []string{"op"}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a new session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session reaching its reported result.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordPartialTranscript records a partial transcript event consumed.
func (m *Metrics) RecordPartialTranscript() {
	m.TranscriptsPartial.Inc()
}

// RecordFinalTranscript records a final transcript event consumed.
func (m *Metrics) RecordFinalTranscript() {
	m.TranscriptsFinal.Inc()
}

// RecordEventDropped records an event discarded after call end.
func (m *Metrics) RecordEventDropped() {
	m.EventsDropped.Inc()
}

// RecordChannelError records a runtime voice channel error.
func (m *Metrics) RecordChannelError() {
	m.ChannelErrors.Inc()
}

// RecordFinalization records a finalization outcome
// (scored, generate_only, too_short, failed).
func (m *Metrics) RecordFinalization(outcome string, latencySeconds float64) {
	m.FinalizationsTotal.WithLabelValues(outcome).Inc()
	m.FinalizationLatency.Observe(latencySeconds)
}

// RecordDuplicateCompletion records a completion signal absorbed by the latch.
func (m *Metrics) RecordDuplicateCompletion() {
	m.DuplicateCompletions.Inc()
}

// RecordScoring records a structured-generation call.
func (m *Metrics) RecordScoring(backend string, err error, latencySeconds float64) {
	m.ScoringLatency.WithLabelValues(backend).Observe(latencySeconds)
	if err != nil {
		m.ScoringErrors.WithLabelValues(backend, "call").Inc()
	}
}

// RecordScoringSchemaViolation records a response rejected by validation.
func (m *Metrics) RecordScoringSchemaViolation(backend string) {
	m.ScoringErrors.WithLabelValues(backend, "schema").Inc()
}

// RecordStoreOp records a document store operation.
func (m *Metrics) RecordStoreOp(op string, err error, latencySeconds float64) {
	m.StoreOpLatency.WithLabelValues(op).Observe(latencySeconds)
	if err != nil {
		m.StoreOpErrors.WithLabelValues(op).Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
