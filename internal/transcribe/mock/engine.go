// Package mock provides a mock transcription engine for testing without
// API credentials. It cycles through canned utterances with plausible
// timings so downstream fusion and identification can be exercised.
package mock

import (
	"context"
	"sync"

	"meeting-assistant-sidecar/internal/transcribe"
)

// DefaultUtterances provides sample transcriptions for simulation.
var DefaultUtterances = [][]transcribe.Segment{
	{
		{Text: "Good morning everyone, let's get started.", Start: 0.0, End: 2.8, Confidence: ptr(0.96)},
		{Text: "First item is the quarterly review.", Start: 3.1, End: 5.4, Confidence: ptr(0.93)},
	},
	{
		{Text: "I think we should move the deadline.", Start: 0.0, End: 2.2, Confidence: ptr(0.91)},
	},
	{
		{Text: "Can everyone see my screen?", Start: 0.0, End: 1.6, Confidence: ptr(0.97)},
		{Text: "Great, so here are the numbers.", Start: 2.0, End: 4.1, Confidence: ptr(0.94)},
	},
	{
		{Text: "Let's take that offline.", Start: 0.0, End: 1.5, Confidence: ptr(0.98)},
	},
}

func ptr(f float64) *float64 { return &f }

// Engine implements transcribe.Engine with canned responses. Each call to
// Transcribe returns the next utterance in the cycle.
type Engine struct {
	mu     sync.Mutex
	loaded bool
	next   int
}

// New creates a new mock transcription engine.
func New() *Engine {
	return &Engine{}
}

// Load marks the engine ready.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = true
	return nil
}

// Transcribe returns the next canned utterance.
func (e *Engine) Transcribe(ctx context.Context, audio []byte, filename string) (transcribe.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return transcribe.Result{}, transcribe.ErrNotLoaded
	}

	utt := DefaultUtterances[e.next%len(DefaultUtterances)]
	e.next++

	segments := make([]transcribe.Segment, len(utt))
	copy(segments, utt)
	return transcribe.Result{Language: "en", Segments: segments}, nil
}

// Unload releases the engine.
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	return nil
}
