package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear relevant env vars
	envVars := []string{
		"SERVICE_PRINCIPAL", "CHANNEL_ENDPOINT", "CHANNEL_HEARTBEAT_INTERVAL",
		"CHANNEL_RECONNECT_BASE", "CHANNEL_RECONNECT_MAX", "CHANNEL_MAX_RECONNECT_ATTEMPTS",
		"INTERVIEW_JOB_ROLE", "INTERVIEW_QUESTION_COUNT",
		"STT_PROVIDER", "STT_LANGUAGE_CODE", "STT_SAMPLE_RATE_HZ",
		"SILENCE_CHECK_INTERVAL", "SILENCE_ENERGY_THRESHOLD", "SILENCE_AFTER",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_PORT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Principal != "svc-interview-voice" {
		t.Errorf("expected default principal 'svc-interview-voice', got %s", cfg.Service.Principal)
	}
	if cfg.Channel.Endpoint != "ws://localhost:8000" {
		t.Errorf("expected default endpoint, got %s", cfg.Channel.Endpoint)
	}
	if cfg.Channel.HeartbeatInterval != 30*time.Second {
		t.Errorf("expected default heartbeat 30s, got %v", cfg.Channel.HeartbeatInterval)
	}
	if cfg.Channel.ReconnectBase != time.Second {
		t.Errorf("expected default reconnect base 1s, got %v", cfg.Channel.ReconnectBase)
	}
	if cfg.Channel.ReconnectMax != 30*time.Second {
		t.Errorf("expected default reconnect max 30s, got %v", cfg.Channel.ReconnectMax)
	}
	if cfg.Channel.MaxReconnectAttempts != 10 {
		t.Errorf("expected default max attempts 10, got %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Interview.QuestionCount != 5 {
		t.Errorf("expected default question count 5, got %d", cfg.Interview.QuestionCount)
	}
	if cfg.STT.Provider != "mock" {
		t.Errorf("expected default STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.Silence.CheckInterval != 100*time.Millisecond {
		t.Errorf("expected default check interval 100ms, got %v", cfg.Silence.CheckInterval)
	}
	if cfg.Silence.EnergyThreshold != 0.01 {
		t.Errorf("expected default threshold 0.01, got %f", cfg.Silence.EnergyThreshold)
	}
	if cfg.Silence.SilenceAfter != 2*time.Second {
		t.Errorf("expected default silence window 2s, got %v", cfg.Silence.SilenceAfter)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.MetricsPort != "9090" {
		t.Errorf("expected default metrics port '9090', got %s", cfg.Observability.MetricsPort)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("CHANNEL_ENDPOINT", "wss://interviews.example.com")
	os.Setenv("CHANNEL_HEARTBEAT_INTERVAL", "10s")
	os.Setenv("CHANNEL_MAX_RECONNECT_ATTEMPTS", "3")
	os.Setenv("INTERVIEW_JOB_ROLE", "Staff Engineer")
	os.Setenv("INTERVIEW_QUESTION_COUNT", "8")
	os.Setenv("STT_PROVIDER", "google")
	os.Setenv("STT_LANGUAGE_CODE", "es-ES")
	os.Setenv("SILENCE_AFTER", "3s")
	os.Setenv("SILENCE_ENERGY_THRESHOLD", "0.05")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		for _, v := range []string{
			"SERVICE_PRINCIPAL", "CHANNEL_ENDPOINT", "CHANNEL_HEARTBEAT_INTERVAL",
			"CHANNEL_MAX_RECONNECT_ATTEMPTS", "INTERVIEW_JOB_ROLE", "INTERVIEW_QUESTION_COUNT",
			"STT_PROVIDER", "STT_LANGUAGE_CODE", "SILENCE_AFTER", "SILENCE_ENERGY_THRESHOLD",
			"KAFKA_ENABLED", "KAFKA_BROKERS", "LOG_LEVEL",
		} {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Channel.Endpoint != "wss://interviews.example.com" {
		t.Errorf("expected custom endpoint, got %s", cfg.Channel.Endpoint)
	}
	if cfg.Channel.HeartbeatInterval != 10*time.Second {
		t.Errorf("expected heartbeat 10s, got %v", cfg.Channel.HeartbeatInterval)
	}
	if cfg.Channel.MaxReconnectAttempts != 3 {
		t.Errorf("expected max attempts 3, got %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Interview.JobRole != "Staff Engineer" {
		t.Errorf("expected job role 'Staff Engineer', got %s", cfg.Interview.JobRole)
	}
	if cfg.Interview.QuestionCount != 8 {
		t.Errorf("expected question count 8, got %d", cfg.Interview.QuestionCount)
	}
	if cfg.STT.Provider != "google" {
		t.Errorf("expected STT provider 'google', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", cfg.STT.LanguageCode)
	}
	if cfg.Silence.SilenceAfter != 3*time.Second {
		t.Errorf("expected silence window 3s, got %v", cfg.Silence.SilenceAfter)
	}
	if cfg.Silence.EnergyThreshold != 0.05 {
		t.Errorf("expected threshold 0.05, got %f", cfg.Silence.EnergyThreshold)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "kafka-1:9092" || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("STT_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("CHANNEL_HEARTBEAT_INTERVAL", "invalid")
	os.Setenv("SILENCE_ENERGY_THRESHOLD", "invalid")
	os.Setenv("KAFKA_ENABLED", "invalid")
	os.Setenv("INTERVIEW_QUESTION_COUNT", "invalid")

	defer func() {
		os.Unsetenv("STT_SAMPLE_RATE_HZ")
		os.Unsetenv("CHANNEL_HEARTBEAT_INTERVAL")
		os.Unsetenv("SILENCE_ENERGY_THRESHOLD")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("INTERVIEW_QUESTION_COUNT")
	}()

	cfg := Load()

	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.Channel.HeartbeatInterval != 30*time.Second {
		t.Errorf("expected default heartbeat on invalid input, got %v", cfg.Channel.HeartbeatInterval)
	}
	if cfg.Silence.EnergyThreshold != 0.01 {
		t.Errorf("expected default threshold on invalid input, got %f", cfg.Silence.EnergyThreshold)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled on invalid input")
	}
	if cfg.Interview.QuestionCount != 5 {
		t.Errorf("expected default question count on invalid input, got %d", cfg.Interview.QuestionCount)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-client")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-client" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
