// Package events mirrors interview milestones to Kafka so downstream
// analytics can consume them without touching the live session channel.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-interview-voice-core/internal/observability/metrics"
)

// TranscriptEvent is the payload mirrored for each finalized answer.
type TranscriptEvent struct {
	EventType      string `json:"eventType"`
	SessionID      string `json:"sessionId"`
	QuestionNumber int    `json:"questionNumber"`
	Question       string `json:"question,omitempty"`
	Transcript     string `json:"transcript"`
	Timestamp      string `json:"timestamp"`
}

// EvaluationEvent is the payload mirrored for each score snapshot.
type EvaluationEvent struct {
	EventType      string             `json:"eventType"`
	SessionID      string             `json:"sessionId"`
	QuestionNumber int                `json:"questionNumber"`
	Scores         map[string]float64 `json:"scores"`
	Verdict        string             `json:"verdict,omitempty"`
	Timestamp      string             `json:"timestamp"`
}

// Publisher mirrors session events to separate Kafka topics.
type Publisher struct {
	writerTranscript *kafka.Writer
	writerEvaluation *kafka.Writer
	principal        string
	topicTranscript  string
	topicEvaluation  string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicTranscript string
	TopicEvaluation string
	Principal       string
	Enabled         bool
}

// New creates a Kafka mirror publisher with separate topics for answers
// and evaluations. Disabled configurations fall back to log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.Default

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicTranscript: cfg.TopicTranscript,
			topicEvaluation: cfg.TopicEvaluation,
			enabled:         false,
			metrics:         m,
		}
	}

	// Longer dial timeouts help DNS resolution inside Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerTranscript := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscript,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerEvaluation := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicEvaluation,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("topicEvaluation", cfg.TopicEvaluation).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerTranscript: writerTranscript,
		writerEvaluation: writerEvaluation,
		principal:        cfg.Principal,
		topicTranscript:  cfg.TopicTranscript,
		topicEvaluation:  cfg.TopicEvaluation,
		enabled:          true,
		metrics:          m,
	}
}

// PublishTranscript mirrors a finalized answer, keyed by session id.
func (p *Publisher) PublishTranscript(ctx context.Context, key string, event TranscriptEvent) error {
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, "transcript", key, event)
}

// PublishEvaluation mirrors a score snapshot, keyed by session id.
func (p *Publisher) PublishEvaluation(ctx context.Context, key string, event EvaluationEvent) error {
	return p.publish(ctx, p.writerEvaluation, p.topicEvaluation, "evaluation", key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordMirrorPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordMirrorPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordMirrorPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	if p.writerEvaluation != nil {
		if e := p.writerEvaluation.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing evaluation writer")
			err = e
		}
	}
	return err
}
