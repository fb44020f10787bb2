package events

import (
	"context"
	"testing"
	"time"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerTranscript != nil {
				t.Error("expected nil transcript writer when disabled")
			}
			if p.writerEvaluation != nil {
				t.Error("expected nil evaluation writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:         false,
		Brokers:         []string{"localhost:9092"},
		TopicTranscript: "interview.transcript.final",
		TopicEvaluation: "interview.evaluation",
		Principal:       "voice-core",
	}

	p := New(cfg)

	if p.principal != "voice-core" {
		t.Errorf("expected principal 'voice-core', got %s", p.principal)
	}
	if p.topicTranscript != "interview.transcript.final" {
		t.Errorf("expected transcript topic, got %s", p.topicTranscript)
	}
	if p.topicEvaluation != "interview.evaluation" {
		t.Errorf("expected evaluation topic, got %s", p.topicEvaluation)
	}
}

func TestPublisher_PublishTranscript_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := TranscriptEvent{
		EventType:      "interview.transcript.final",
		SessionID:      "01JXAMPLE",
		QuestionNumber: 1,
		Transcript:     "I led the migration",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.PublishTranscript(context.Background(), event.SessionID, event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishEvaluation_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := EvaluationEvent{
		EventType:      "interview.evaluation",
		SessionID:      "01JXAMPLE",
		QuestionNumber: 2,
		Scores:         map[string]float64{"communication": 8.0},
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.PublishEvaluation(context.Background(), event.SessionID, event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Create an unmarshalable value (channel)
	event := make(chan int)
	err := p.publish(context.Background(), nil, "test.topic", "transcript", "key", event)

	if err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilPublisher(t *testing.T) {
	p := &Publisher{
		writerTranscript: nil,
		writerEvaluation: nil,
	}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
