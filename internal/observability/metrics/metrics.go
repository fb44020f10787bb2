// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_interview_voice"

// Metrics holds all Prometheus metrics for the voice core.
type Metrics struct {
	// Channel metrics
	ChannelConnects        prometheus.Counter
	ChannelDisconnects     prometheus.Counter
	ReconnectAttempts      prometheus.Counter
	ReconnectExhausted     prometheus.Counter
	HeartbeatsSent         prometheus.Counter
	MessagesSent           *prometheus.CounterVec
	MessagesReceived       *prometheus.CounterVec
	MessagesDropped        *prometheus.CounterVec
	ProtocolErrors         prometheus.Counter

	// Capture metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter
	CaptureErrors      *prometheus.CounterVec
	CaptureSessions    prometheus.Counter

	// Silence metrics
	SilenceEvents prometheus.Counter
	AudioLevel    prometheus.Gauge

	// Playback metrics
	PlaybacksStarted   prometheus.Counter
	PlaybacksCancelled prometheus.Counter

	// State machine metrics
	StateTransitions *prometheus.CounterVec

	// Event mirror metrics
	MirrorPublishTotal   *prometheus.CounterVec
	MirrorPublishErrors  *prometheus.CounterVec
	MirrorPublishLatency *prometheus.HistogramVec
}

// Default is the global metrics instance.
var Default = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ChannelConnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_connects_total",
			Help:      "Total number of successful channel connections",
		}),
		ChannelDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_disconnects_total",
			Help:      "Total number of unexpected channel closures",
		}),
		ReconnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_reconnect_attempts_total",
			Help:      "Total number of scheduled reconnect attempts",
		}),
		ReconnectExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_reconnect_exhausted_total",
			Help:      "Total number of times reconnection gave up",
		}),
		HeartbeatsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_heartbeats_sent_total",
			Help:      "Total number of heartbeat pings sent",
		}),
		MessagesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_messages_sent_total",
			Help:      "Total number of messages sent, by kind",
		}, []string{"kind"}),
		MessagesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_messages_received_total",
			Help:      "Total number of messages received, by kind",
		}, []string{"kind"}),
		MessagesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_messages_dropped_total",
			Help:      "Total number of messages dropped, by reason",
		}, []string{"reason"}),
		ProtocolErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_protocol_errors_total",
			Help:      "Total number of malformed or unknown inbound payloads",
		}),

		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of interim transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of finalized transcripts received",
		}),
		CaptureErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Total number of capture errors, by class",
		}, []string{"class"}),
		CaptureSessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_sessions_total",
			Help:      "Total number of listening cycles started",
		}),

		SilenceEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "silence_events_total",
			Help:      "Total number of silence-detected events fired",
		}),
		AudioLevel: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_level",
			Help:      "Last reported normalized audio level in [0,1]",
		}),

		PlaybacksStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playbacks_started_total",
			Help:      "Total number of question playbacks started",
		}),
		PlaybacksCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playbacks_cancelled_total",
			Help:      "Total number of playbacks cancelled before completion",
		}),

		StateTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of controller state transitions",
		}, []string{"from", "to"}),

		MirrorPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_publish_total",
			Help:      "Total number of events mirrored to Kafka",
		}, []string{"topic", "event_type"}),
		MirrorPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_publish_errors_total",
			Help:      "Total number of Kafka mirror publish errors",
		}, []string{"topic", "event_type"}),
		MirrorPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mirror_publish_latency_seconds",
			Help:      "Kafka mirror publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordConnect records a successful channel connection.
func (m *Metrics) RecordConnect() {
	m.ChannelConnects.Inc()
}

// RecordDisconnect records an unexpected channel closure.
func (m *Metrics) RecordDisconnect() {
	m.ChannelDisconnects.Inc()
}

// RecordReconnectAttempt records a scheduled reconnect attempt.
func (m *Metrics) RecordReconnectAttempt() {
	m.ReconnectAttempts.Inc()
}

// RecordReconnectExhausted records reconnection giving up for good.
func (m *Metrics) RecordReconnectExhausted() {
	m.ReconnectExhausted.Inc()
}

// RecordHeartbeat records a heartbeat ping sent.
func (m *Metrics) RecordHeartbeat() {
	m.HeartbeatsSent.Inc()
}

// RecordMessageSent records an outbound message by kind.
func (m *Metrics) RecordMessageSent(kind string) {
	m.MessagesSent.WithLabelValues(kind).Inc()
}

// RecordMessageReceived records an inbound message by kind.
func (m *Metrics) RecordMessageReceived(kind string) {
	m.MessagesReceived.WithLabelValues(kind).Inc()
}

// RecordMessageDropped records a dropped message by reason.
func (m *Metrics) RecordMessageDropped(reason string) {
	m.MessagesDropped.WithLabelValues(reason).Inc()
}

// RecordProtocolError records an undecodable inbound payload.
func (m *Metrics) RecordProtocolError() {
	m.ProtocolErrors.Inc()
}

// RecordTranscript records a transcript update.
func (m *Metrics) RecordTranscript(final bool) {
	if final {
		m.TranscriptsFinal.Inc()
	} else {
		m.TranscriptsPartial.Inc()
	}
}

// RecordCaptureError records a capture error by class.
func (m *Metrics) RecordCaptureError(class string) {
	m.CaptureErrors.WithLabelValues(class).Inc()
}

// RecordCaptureSession records the start of a listening cycle.
func (m *Metrics) RecordCaptureSession() {
	m.CaptureSessions.Inc()
}

// RecordSilenceEvent records a silence-detected event.
func (m *Metrics) RecordSilenceEvent() {
	m.SilenceEvents.Inc()
}

// RecordAudioLevel records the last normalized audio level.
func (m *Metrics) RecordAudioLevel(level float64) {
	m.AudioLevel.Set(level)
}

// RecordPlaybackStart records a playback beginning.
func (m *Metrics) RecordPlaybackStart() {
	m.PlaybacksStarted.Inc()
}

// RecordPlaybackCancelled records a playback cancelled mid-flight.
func (m *Metrics) RecordPlaybackCancelled() {
	m.PlaybacksCancelled.Inc()
}

// RecordStateTransition records a controller state change.
func (m *Metrics) RecordStateTransition(from, to string) {
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

// RecordMirrorPublish records a Kafka mirror publish attempt.
func (m *Metrics) RecordMirrorPublish(topic, eventType string, err error, latencySeconds float64) {
	m.MirrorPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.MirrorPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.MirrorPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
