// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration holds all runtime settings for the orchestrator.
type Configuration struct {
	Service       ServiceConfig
	Voice         VoiceConfig
	Scoring       ScoringConfig
	Store         StoreConfig
	Session       SessionConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listen port.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// VoiceConfig selects and configures the realtime voice channel.
type VoiceConfig struct {
	Provider  string // "mock" or "vapi"
	URL       string
	APIKey    string
	PublicKey string
}

// ScoringConfig selects and configures the structured-generation backend.
type ScoringConfig struct {
	Backend string // "mock" or "openai"
	APIKey  string
	Model   string
	Timeout time.Duration
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend string // "memory" or "postgres"
	DSN     string
}

// SessionConfig tunes session finalization behavior.
type SessionConfig struct {
	SettleDelay time.Duration
}

// KafkaConfig configures transcript and completion event publishing.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicPartial   string
	TopicFinal     string
	TopicCompleted string
	Principal      string
}

// ObservabilityConfig configures logging and the metrics endpoint.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json, console
	Addr      string
}

// Load reads configuration from the environment, falling back to defaults
// for anything unset or unparsable. A .env file is honored when present.
func Load() *Configuration {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-interview-orchestrator")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Voice: VoiceConfig{
			Provider:  envOrDefault("VOICE_PROVIDER", "mock"),
			URL:       envOrDefault("VOICE_URL", "wss://api.vapi.ai/ws"),
			APIKey:    os.Getenv("VOICE_API_KEY"),
			PublicKey: os.Getenv("VOICE_PUBLIC_KEY"),
		},
		Scoring: ScoringConfig{
			Backend: envOrDefault("SCORING_BACKEND", "mock"),
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   envOrDefault("SCORING_MODEL", "gpt-4o-mini"),
			Timeout: envOrDefaultDuration("SCORING_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Backend: envOrDefault("STORE_BACKEND", "memory"),
			DSN:     os.Getenv("STORE_DSN"),
		},
		Session: SessionConfig{
			SettleDelay: envOrDefaultDuration("SESSION_SETTLE_DELAY", 1500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        splitAndTrim(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
			TopicPartial:   envOrDefault("KAFKA_TOPIC_PARTIAL", "interview.transcripts.partial"),
			TopicFinal:     envOrDefault("KAFKA_TOPIC_FINAL", "interview.transcripts.final"),
			TopicCompleted: envOrDefault("KAFKA_TOPIC_COMPLETED", "interview.sessions.completed"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
			Addr:      envOrDefault("OBSERVABILITY_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
