// Package whisper transcribes audio through an OpenAI-compatible
// audio/transcriptions HTTP endpoint.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"meeting-assistant-sidecar/internal/observability/logging"
	"meeting-assistant-sidecar/internal/transcribe"
)

// Config holds whisper engine configuration.
type Config struct {
	BaseURL  string // e.g. https://api.openai.com/v1
	APIKey   string
	Model    string // e.g. whisper-1
	Language string
}

// Engine implements transcribe.Engine against a whisper HTTP API.
type Engine struct {
	cfg    Config
	client *http.Client
	loaded bool
}

// New creates a new whisper engine.
func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Load validates configuration. The HTTP backend has no model to warm up.
func (e *Engine) Load(ctx context.Context) error {
	if e.cfg.APIKey == "" {
		return errors.New("whisper: API key not configured")
	}
	if e.cfg.Model == "" {
		e.cfg.Model = "whisper-1"
	}
	e.loaded = true
	lg := logging.WithComponent("whisper")
	lg.Info().
		Str("baseUrl", e.cfg.BaseURL).
		Str("model", e.cfg.Model).
		Msg("Whisper engine ready")
	return nil
}

// verboseResponse mirrors the verbose_json transcription response shape.
type verboseResponse struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe posts one audio chunk as multipart form data and parses the
// verbose_json response into timed segments.
func (e *Engine) Transcribe(ctx context.Context, audio []byte, filename string) (transcribe.Result, error) {
	if !e.loaded {
		return transcribe.Result{}, transcribe.ErrNotLoaded
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", e.cfg.Model); err != nil {
		return transcribe.Result{}, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return transcribe.Result{}, err
	}
	if e.cfg.Language != "" {
		if err := mw.WriteField("language", e.cfg.Language); err != nil {
			return transcribe.Result{}, err
		}
	}

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return transcribe.Result{}, err
	}
	if _, err := fw.Write(audio); err != nil {
		return transcribe.Result{}, err
	}
	if err := mw.Close(); err != nil {
		return transcribe.Result{}, err
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return transcribe.Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return transcribe.Result{}, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return transcribe.Result{}, fmt.Errorf("whisper http %d: %s", resp.StatusCode, string(b))
	}

	var vr verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return transcribe.Result{}, fmt.Errorf("whisper decode: %w", err)
	}

	result := transcribe.Result{Language: vr.Language}
	for _, s := range vr.Segments {
		result.Segments = append(result.Segments, transcribe.Segment{
			Text:  strings.TrimSpace(s.Text),
			Start: s.Start,
			End:   s.End,
		})
	}
	// Some servers omit segments for very short audio and return text only.
	if len(result.Segments) == 0 && strings.TrimSpace(vr.Text) != "" {
		result.Segments = []transcribe.Segment{{Text: strings.TrimSpace(vr.Text)}}
	}
	return result, nil
}

// Unload releases the engine.
func (e *Engine) Unload() error {
	e.loaded = false
	return nil
}
