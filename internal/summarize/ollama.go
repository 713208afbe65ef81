package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider summarizes via a local Ollama instance. Ollama has no
// official Go SDK; its generate endpoint is a plain JSON POST.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

// NewOllamaProvider creates a provider for the Ollama server at baseURL,
// e.g. http://localhost:11434.
func NewOllamaProvider(baseURL string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Summarize posts the prompt to /api/generate with streaming disabled.
func (p *OllamaProvider) Summarize(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  req.Model,
		Prompt: systemPrompt + "\n\n" + userPrompt(req.Transcript),
		Stream: false,
	})
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("ollama http %d: %s", resp.StatusCode, string(b))
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return Result{}, fmt.Errorf("ollama decode: %w", err)
	}

	return Result{
		Markdown:   or.Response,
		Provider:   ProviderOllama,
		Model:      req.Model,
		TokenCount: or.PromptEvalCount + or.EvalCount,
	}, nil
}
