package summarize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider generates summaries with the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider builds a Gemini-backed provider. The api key is
// required.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("summarize: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("summarize: gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Summarize implements Provider via the generateContent endpoint.
func (p *GeminiProvider) Summarize(ctx context.Context, req Request) (Result, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(systemPrompt)},
		},
	}
	contents := []*genai.Content{
		{Parts: []*genai.Part{genai.NewPartFromText(userPrompt(req.Transcript))}, Role: "user"},
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, fmt.Errorf("gemini generate: no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	tokens := 0
	if usage := resp.UsageMetadata; usage != nil {
		tokens = int(usage.PromptTokenCount + usage.CandidatesTokenCount)
	}

	return Result{
		Markdown:   sb.String(),
		Provider:   ProviderGemini,
		Model:      req.Model,
		TokenCount: tokens,
	}, nil
}
