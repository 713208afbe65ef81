package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider summarizes via the OpenAI chat completions API.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a provider bound to the given API key.
// An optional base URL overrides the default endpoint, which makes the
// provider usable against any OpenAI-compatible server.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("summarize: API key required for openai")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}, nil
}

// Summarize sends the transcript to the chat completions endpoint.
func (p *OpenAIProvider) Summarize(ctx context.Context, req Request) (Result, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req.Transcript)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("openai chat: empty response")
	}

	return Result{
		Markdown:   resp.Choices[0].Message.Content,
		Provider:   ProviderOpenAI,
		Model:      req.Model,
		TokenCount: int(resp.Usage.PromptTokens + resp.Usage.CompletionTokens),
	}, nil
}
