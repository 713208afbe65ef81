// Package mock provides a mock diarization pipeline for testing without
// a real diarization backend. It emits a fixed two-speaker conversation
// with stable per-speaker embeddings so identification is reproducible.
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"meeting-assistant-sidecar/internal/diarize"
)

// Embedding dimension used for the synthetic speaker vectors.
const embeddingDim = 8

// Pipeline implements diarize.Pipeline with canned turns.
type Pipeline struct {
	mu     sync.Mutex
	loaded bool

	// RequirePath makes Diarize fail when the audio file does not exist.
	// Tests that use synthetic paths leave it false.
	RequirePath bool
}

// New creates a new mock diarization pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Load marks the pipeline ready.
func (p *Pipeline) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	return nil
}

// Diarize returns a fixed two-speaker conversation. When numSpeakers is 1
// only the first speaker is emitted.
func (p *Pipeline) Diarize(ctx context.Context, audioPath string, numSpeakers int) (diarize.Result, error) {
	p.mu.Lock()
	loaded := p.loaded
	requirePath := p.RequirePath
	p.mu.Unlock()

	if !loaded {
		return diarize.Result{}, diarize.ErrNotLoaded
	}
	if requirePath {
		if _, err := os.Stat(audioPath); err != nil {
			return diarize.Result{}, fmt.Errorf("audio file not found: %s", audioPath)
		}
	}

	turns := []diarize.Turn{
		{Speaker: "SPEAKER_00", Start: 0.0, End: 4.2},
		{Speaker: "SPEAKER_01", Start: 4.5, End: 9.8},
		{Speaker: "SPEAKER_00", Start: 10.1, End: 13.0},
	}
	embeddings := map[string][]float32{
		"SPEAKER_00": speakerVector(0),
		"SPEAKER_01": speakerVector(1),
	}

	if numSpeakers == 1 {
		turns = turns[:1]
		delete(embeddings, "SPEAKER_01")
	}

	return diarize.Result{Turns: turns, Embeddings: embeddings}, nil
}

// Unload releases the pipeline.
func (p *Pipeline) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = false
	return nil
}

// speakerVector builds a deterministic unit-ish vector per speaker index.
func speakerVector(idx int) []float32 {
	v := make([]float32, embeddingDim)
	v[idx%embeddingDim] = 1.0
	return v
}
