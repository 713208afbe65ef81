// Package transcribe defines the interface for transcription engines.
package transcribe

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned when Transcribe is called before Load.
var ErrNotLoaded = errors.New("transcribe: engine not loaded")

// Segment is a timed portion of transcribed audio.
type Segment struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Result holds the output of transcribing one audio chunk.
type Result struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Engine defines the interface for transcription backends.
type Engine interface {
	// Load prepares the engine for use. It must be called before Transcribe.
	Load(ctx context.Context) error

	// Transcribe converts one audio chunk into timed segments. The audio
	// is a complete encoded file (wav, webm, etc.), not a raw PCM stream.
	Transcribe(ctx context.Context, audio []byte, filename string) (Result, error)

	// Unload releases engine resources.
	Unload() error
}
