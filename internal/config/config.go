// Package config loads the client configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full client configuration, sectioned per concern.
type Config struct {
	Service       ServiceConfig
	Channel       ChannelConfig
	Interview     InterviewConfig
	STT           STTConfig
	Silence       SilenceConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies this client instance.
type ServiceConfig struct {
	Principal string
}

// ChannelConfig drives the session channel.
type ChannelConfig struct {
	Endpoint             string
	HeartbeatInterval    time.Duration
	ReconnectBase        time.Duration
	ReconnectMax         time.Duration
	MaxReconnectAttempts int
	DialTimeout          time.Duration
}

// InterviewConfig holds the job parameters sent on start.
type InterviewConfig struct {
	JobRole        string
	JobDescription string
	QuestionCount  int
}

// STTConfig selects and tunes the recognition engine.
type STTConfig struct {
	Provider     string
	LanguageCode string
	SampleRateHz int
}

// SilenceConfig tunes end-of-answer detection.
type SilenceConfig struct {
	CheckInterval   time.Duration
	EnergyThreshold float64
	SilenceAfter    time.Duration
}

// KafkaConfig drives the event mirror.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicTranscript string
	TopicEvaluation string
	Principal       string
}

// ObservabilityConfig drives logging and the metrics endpoint.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load reads the configuration from the environment, falling back to
// defaults on missing or unparseable values.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-interview-voice")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
		},
		Channel: ChannelConfig{
			Endpoint:             envOrDefault("CHANNEL_ENDPOINT", "ws://localhost:8000"),
			HeartbeatInterval:    envOrDefaultDuration("CHANNEL_HEARTBEAT_INTERVAL", 30*time.Second),
			ReconnectBase:        envOrDefaultDuration("CHANNEL_RECONNECT_BASE", time.Second),
			ReconnectMax:         envOrDefaultDuration("CHANNEL_RECONNECT_MAX", 30*time.Second),
			MaxReconnectAttempts: envOrDefaultInt("CHANNEL_MAX_RECONNECT_ATTEMPTS", 10),
			DialTimeout:          envOrDefaultDuration("CHANNEL_DIAL_TIMEOUT", 10*time.Second),
		},
		Interview: InterviewConfig{
			JobRole:        envOrDefault("INTERVIEW_JOB_ROLE", "Software Engineer"),
			JobDescription: envOrDefault("INTERVIEW_JOB_DESCRIPTION", ""),
			QuestionCount:  envOrDefaultInt("INTERVIEW_QUESTION_COUNT", 5),
		},
		STT: STTConfig{
			Provider:     envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode: envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz: envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
		},
		Silence: SilenceConfig{
			CheckInterval:   envOrDefaultDuration("SILENCE_CHECK_INTERVAL", 100*time.Millisecond),
			EnergyThreshold: envOrDefaultFloat("SILENCE_ENERGY_THRESHOLD", 0.01),
			SilenceAfter:    envOrDefaultDuration("SILENCE_AFTER", 2*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envOrDefaultSlice("KAFKA_BROKERS", nil),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "interview.transcript.final"),
			TopicEvaluation: envOrDefault("KAFKA_TOPIC_EVALUATION", "interview.evaluation"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
