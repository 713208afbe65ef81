// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_sidecar"

// Metrics holds all Prometheus metrics for the sidecar.
type Metrics struct {
	// IPC message metrics
	MessagesTotal   *prometheus.CounterVec
	MessageErrors   *prometheus.CounterVec
	MessageDuration *prometheus.HistogramVec

	// Speaker identification metrics
	IdentifyRuns      prometheus.Counter
	SpeakersMatched   prometheus.Counter
	SpeakersUnmatched prometheus.Counter
	ProfilesCreated   prometheus.Counter
	ProfileUpdates    prometheus.Counter
	MatchConfidence   prometheus.Histogram

	// Fusion metrics
	TranscriptsFused prometheus.Counter
	TurnsFused       prometheus.Counter

	// Transcription and diarization metrics
	ChunksTranscribed prometheus.Counter
	AudioBytesIn      prometheus.Counter
	DiarizationRuns   prometheus.Counter

	// Summarization metrics
	SummariesGenerated *prometheus.CounterVec
	SummaryErrors      *prometheus.CounterVec
	SummaryTokens      *prometheus.CounterVec
	SummaryLatency     *prometheus.HistogramVec

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
		MessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of IPC messages handled",
		}, []string{"type"}),
		MessageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_errors_total",
			Help:      "Total number of IPC messages that produced an error response",
		}, []string{"type"}),
		MessageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_duration_seconds",
			Help:      "IPC message handling duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"type"}),

		IdentifyRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identify_runs_total",
			Help:      "Total number of speaker identification runs",
		}),
		SpeakersMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speakers_matched_total",
			Help:      "Total number of speakers matched to a known profile",
		}),
		SpeakersUnmatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speakers_unmatched_total",
			Help:      "Total number of speakers with no profile above threshold",
		}),
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_created_total",
			Help:      "Total number of new speaker profiles created",
		}),
		ProfileUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_updates_total",
			Help:      "Total number of running-average profile updates",
		}),
		MatchConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_confidence",
			Help:      "Best-candidate cosine similarity per observed speaker",
			Buckets:   []float64{-1, -0.5, 0, 0.25, 0.5, 0.75, 0.85, 0.95, 1},
		}),

		TranscriptsFused: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_fused_total",
			Help:      "Total number of diarization/transcript fusions",
		}),
		TurnsFused: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_fused_total",
			Help:      "Total number of diarization turns fused into transcript blocks",
		}),

		ChunksTranscribed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_transcribed_total",
			Help:      "Total number of audio chunks transcribed",
		}),
		AudioBytesIn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_in_total",
			Help:      "Total audio bytes received for transcription",
		}),
		DiarizationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diarization_runs_total",
			Help:      "Total number of diarization pipeline runs",
		}),

		SummariesGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_generated_total",
			Help:      "Total number of summaries generated",
		}, []string{"provider"}),
		SummaryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_errors_total",
			Help:      "Total number of summarization failures",
		}, []string{"provider"}),
		SummaryTokens: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_tokens_total",
			Help:      "Total LLM tokens consumed by summarization",
		}, []string{"provider"}),
		SummaryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_latency_seconds",
			Help:      "Summarization provider latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider"}),

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

// RecordMessage records one handled IPC message.
func (m *Metrics) RecordMessage(msgType string, failed bool, durationSeconds float64) {
	m.MessagesTotal.WithLabelValues(msgType).Inc()
	m.MessageDuration.WithLabelValues(msgType).Observe(durationSeconds)
	if failed {
		m.MessageErrors.WithLabelValues(msgType).Inc()
	}
}

// RecordIdentify records one identification run and its per-speaker outcomes.
func (m *Metrics) RecordIdentify(matched, unmatched int) {
	m.IdentifyRuns.Inc()
	m.SpeakersMatched.Add(float64(matched))
	m.SpeakersUnmatched.Add(float64(unmatched))
}

// RecordMatchConfidence records the best similarity seen for one speaker.
func (m *Metrics) RecordMatchConfidence(confidence float64) {
	m.MatchConfidence.Observe(confidence)
}

// RecordProfileCreated records a new speaker profile.
func (m *Metrics) RecordProfileCreated() {
	m.ProfilesCreated.Inc()
}

// RecordProfileUpdate records a running-average update.
func (m *Metrics) RecordProfileUpdate() {
	m.ProfileUpdates.Inc()
}

// RecordFusion records one diarization/transcript fusion.
func (m *Metrics) RecordFusion(turns int) {
	m.TranscriptsFused.Inc()
	m.TurnsFused.Add(float64(turns))
}

// RecordChunkTranscribed records one transcribed audio chunk.
func (m *Metrics) RecordChunkTranscribed(audioBytes int) {
	m.ChunksTranscribed.Inc()
	m.AudioBytesIn.Add(float64(audioBytes))
}

// RecordDiarization records one diarization run.
func (m *Metrics) RecordDiarization() {
	m.DiarizationRuns.Inc()
}

// RecordSummary records one summarization attempt.
func (m *Metrics) RecordSummary(provider string, tokens int, err error, latencySeconds float64) {
	m.SummaryLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.SummaryErrors.WithLabelValues(provider).Inc()
		return
	}
	m.SummariesGenerated.WithLabelValues(provider).Inc()
	m.SummaryTokens.WithLabelValues(provider).Add(float64(tokens))
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
