package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"meeting-assistant-sidecar/internal/config"
	"meeting-assistant-sidecar/internal/diarize"
	diarizemock "meeting-assistant-sidecar/internal/diarize/mock"
	"meeting-assistant-sidecar/internal/events"
	"meeting-assistant-sidecar/internal/ipc"
	"meeting-assistant-sidecar/internal/observability"
	"meeting-assistant-sidecar/internal/observability/logging"
	"meeting-assistant-sidecar/internal/speakerid"
	"meeting-assistant-sidecar/internal/store"
	"meeting-assistant-sidecar/internal/summaries"
	"meeting-assistant-sidecar/internal/summarize"
	"meeting-assistant-sidecar/internal/transcribe"
	transcribemock "meeting-assistant-sidecar/internal/transcribe/mock"
	"meeting-assistant-sidecar/internal/transcribe/whisper"
)

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
	}
	defer st.Close()

	files, err := summaries.NewManager(cfg.Summaries.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Summaries.Dir).Msg("Failed to init summaries directory")
	}

	publisher := events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		TopicSummary:    cfg.Kafka.TopicSummary,
		Principal:       cfg.Kafka.Principal,
	})
	defer publisher.Close()

	engine := buildEngine(cfg)
	if err := engine.Load(ctx); err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Transcribe.Provider).Msg("Failed to load transcription engine")
	}
	defer engine.Unload()

	var pipeline diarize.Pipeline = diarizemock.New()
	if err := pipeline.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load diarization pipeline")
	}
	defer pipeline.Unload()

	identifier := speakerid.New(st)
	identifier.Threshold = cfg.Matcher.Threshold

	summarizer := summarize.NewService(buildSummarizers(ctx, cfg), summarize.Defaults{
		Provider: cfg.Summarize.Provider,
		Models: map[string]string{
			summarize.ProviderOpenAI: cfg.Summarize.OpenAIModel,
			summarize.ProviderGemini: cfg.Summarize.GeminiModel,
			summarize.ProviderOllama: cfg.Summarize.OllamaModel,
		},
	})

	obs := observability.NewServer(cfg.Observability.MetricsAddr)
	obs.Start()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		obs.Shutdown(shutdownCtx)
	}()

	handlers := ipc.NewHandlers(engine, pipeline, identifier, st, summarizer, files, publisher)
	dispatcher := ipc.NewDispatcher(handlers, os.Stdin, os.Stdout)

	// A closed stdin means the host is gone; a signal means shut down.
	done := make(chan error, 1)
	go func() {
		done <- dispatcher.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Shutting down")
		cancel()
	case err := <-done:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Dispatcher exited with error")
		}
	}
}

func buildEngine(cfg *config.Configuration) transcribe.Engine {
	switch cfg.Transcribe.Provider {
	case "whisper":
		return whisper.New(whisper.Config{
			BaseURL:  cfg.Transcribe.BaseURL,
			APIKey:   cfg.Transcribe.APIKey,
			Model:    cfg.Transcribe.Model,
			Language: cfg.Transcribe.Language,
		})
	default:
		return transcribemock.New()
	}
}

func buildSummarizers(ctx context.Context, cfg *config.Configuration) map[string]summarize.Provider {
	providers := map[string]summarize.Provider{
		summarize.ProviderOllama: summarize.NewOllamaProvider(cfg.Summarize.OllamaURL),
	}
	if openaiProvider, err := summarize.NewOpenAIProvider(cfg.Summarize.OpenAIKey, ""); err == nil {
		providers[summarize.ProviderOpenAI] = openaiProvider
	} else {
		log.Warn().Err(err).Msg("OpenAI summarization disabled")
	}
	if geminiProvider, err := summarize.NewGeminiProvider(ctx, cfg.Summarize.GeminiKey); err == nil {
		providers[summarize.ProviderGemini] = geminiProvider
	} else {
		log.Warn().Err(err).Msg("Gemini summarization disabled")
	}
	return providers
}
