// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Configuration holds all runtime configuration for the sidecar.
type Configuration struct {
	Service       ServiceConfig
	Matcher       MatcherConfig
	Database      DatabaseConfig
	Summaries     SummariesConfig
	Transcribe    TranscribeConfig
	Summarize     SummarizeConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service.
type ServiceConfig struct {
	Principal string
}

// MatcherConfig controls cross-meeting speaker identification.
type MatcherConfig struct {
	Threshold float64
}

// DatabaseConfig controls the SQLite store.
type DatabaseConfig struct {
	Path string
}

// SummariesConfig controls where summary markdown files are written.
type SummariesConfig struct {
	Dir string
}

// TranscribeConfig selects and configures the transcription engine.
type TranscribeConfig struct {
	Provider string // mock, whisper
	BaseURL  string
	APIKey   string
	Model    string
	Language string
}

// SummarizeConfig selects and configures the summarization provider.
// Provider and the per-provider models are the defaults applied when a
// summarize message omits them.
type SummarizeConfig struct {
	Provider    string // openai, gemini, ollama
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
}

// KafkaConfig configures the optional event publisher.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicTranscript string
	TopicSummary    string
	Principal       string
}

// ObservabilityConfig configures logging and the metrics endpoint.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load builds a Configuration from the environment, applying defaults
// for anything unset or unparseable.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-meeting-sidecar")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
		},
		Matcher: MatcherConfig{
			Threshold: envOrDefaultFloat("MATCHER_THRESHOLD", 0.75),
		},
		Database: DatabaseConfig{
			Path: envOrDefault("DB_PATH", "meetings.db"),
		},
		Summaries: SummariesConfig{
			Dir: envOrDefault("SUMMARIES_DIR", "summaries"),
		},
		Transcribe: TranscribeConfig{
			Provider: envOrDefault("TRANSCRIBE_PROVIDER", "mock"),
			BaseURL:  envOrDefault("TRANSCRIBE_BASE_URL", "https://api.openai.com/v1"),
			APIKey:   os.Getenv("TRANSCRIBE_API_KEY"),
			Model:    envOrDefault("TRANSCRIBE_MODEL", "whisper-1"),
			Language: envOrDefault("TRANSCRIBE_LANGUAGE", "en"),
		},
		Summarize: SummarizeConfig{
			Provider:    envOrDefault("SUMMARIZE_PROVIDER", "openai"),
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
			OpenAIModel: envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			GeminiKey:   os.Getenv("GEMINI_API_KEY"),
			GeminiModel: envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			OllamaURL:   envOrDefault("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel: envOrDefault("OLLAMA_MODEL", "llama3.2"),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         splitAndTrim(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "meeting.transcripts"),
			TopicSummary:    envOrDefault("KAFKA_TOPIC_SUMMARY", "meeting.summaries"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
