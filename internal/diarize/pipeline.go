// Package diarize defines the interface for speaker diarization pipelines.
// A pipeline segments a recording into speaker turns and extracts
// per-speaker embeddings for downstream identification across meetings.
package diarize

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned when Diarize is called before Load.
var ErrNotLoaded = errors.New("diarize: pipeline not loaded")

// Turn is a single speaker turn in the audio.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Result is the complete diarization output for a recording.
type Result struct {
	Turns      []Turn               `json:"segments"`
	Embeddings map[string][]float32 `json:"-"`
}

// Pipeline defines the interface for diarization backends.
type Pipeline interface {
	// Load prepares the pipeline. It must be called before Diarize.
	Load(ctx context.Context) error

	// Diarize segments the audio file at path into speaker turns.
	// numSpeakers hints the expected speaker count; 0 means auto-detect.
	Diarize(ctx context.Context, audioPath string, numSpeakers int) (Result, error)

	// Unload releases pipeline resources.
	Unload() error
}
