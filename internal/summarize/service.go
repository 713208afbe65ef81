// Package summarize generates structured meeting summaries from diarized
// transcripts using a configurable LLM provider.
package summarize

import (
	"context"
	"fmt"
	"time"

	"meeting-assistant-sidecar/internal/observability/metrics"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// systemPrompt instructs the model to emit a fixed Markdown layout so
// summaries are diffable across meetings.
const systemPrompt = `You are a meeting summarization assistant. Given a diarized transcript, produce a structured meeting summary in Markdown using exactly this format:

# Meeting: [Participant1] & [Participant2] — YYYY-MM-DD

## Participants
- Name (Role if known)

## Summary
[2-3 sentence overview]

## Key Discussion Points
- [Topic]: [Details with speaker attribution]

## Action Items
- [ ] [Name]: [Action item]

## Notes
[Additional context]

Rules:
- Extract participant names from the transcript speaker labels.
- Attribute key points and action items to specific speakers.
- Keep the summary concise but comprehensive.
- Use the exact section headers shown above.`

// Request asks for a meeting summary.
type Request struct {
	Transcript string
	Provider   string
	Model      string
}

// Result is a generated meeting summary.
type Result struct {
	Markdown   string
	Provider   string
	Model      string
	TokenCount int
}

// Provider generates a summary for one transcript.
type Provider interface {
	Summarize(ctx context.Context, req Request) (Result, error)
}

// Defaults fill in the provider and model for requests that omit them.
// Models maps provider name to that provider's default model.
type Defaults struct {
	Provider string
	Models   map[string]string
}

// Service routes summarization requests to registered providers.
type Service struct {
	providers map[string]Provider
	defaults  Defaults
}

// NewService creates a Service with the given providers keyed by name.
func NewService(providers map[string]Provider, defaults Defaults) *Service {
	return &Service{providers: providers, defaults: defaults}
}

// Summarize picks the requested provider and generates a summary. An empty
// provider or model falls back to the configured defaults.
func (s *Service) Summarize(ctx context.Context, req Request) (Result, error) {
	if req.Transcript == "" {
		return Result{}, fmt.Errorf("summarize: empty transcript")
	}
	if req.Provider == "" {
		req.Provider = s.defaults.Provider
	}
	p, ok := s.providers[req.Provider]
	if !ok {
		return Result{}, fmt.Errorf("summarize: unsupported provider %q", req.Provider)
	}
	if req.Model == "" {
		req.Model = s.defaults.Models[req.Provider]
	}
	if req.Model == "" {
		return Result{}, fmt.Errorf("summarize: no model specified and no default for provider %q", req.Provider)
	}

	start := time.Now()
	result, err := p.Summarize(ctx, req)
	metrics.DefaultMetrics.RecordSummary(req.Provider, result.TokenCount, err, time.Since(start).Seconds())
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// userPrompt builds the user message for a transcript.
func userPrompt(transcript string) string {
	return "Summarize this transcript:\n\n" + transcript
}
