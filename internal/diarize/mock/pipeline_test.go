package mock

import (
	"context"
	"path/filepath"
	"testing"

	"meeting-assistant-sidecar/internal/diarize"
)

func TestDiarize_RequiresLoad(t *testing.T) {
	p := New()
	_, err := p.Diarize(context.Background(), "meeting.wav", 0)
	if err != diarize.ErrNotLoaded {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestDiarize_TwoSpeakers(t *testing.T) {
	p := New()
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	result, err := p.Diarize(context.Background(), "meeting.wav", 0)
	if err != nil {
		t.Fatalf("diarize: %v", err)
	}
	if len(result.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(result.Turns))
	}
	if len(result.Embeddings) != 2 {
		t.Fatalf("expected 2 speaker embeddings, got %d", len(result.Embeddings))
	}
	for speaker, emb := range result.Embeddings {
		if len(emb) != embeddingDim {
			t.Errorf("speaker %s embedding has dim %d, want %d", speaker, len(emb), embeddingDim)
		}
	}
	// Turns must be ordered and non-overlapping in the canned output.
	for i := 1; i < len(result.Turns); i++ {
		if result.Turns[i].Start < result.Turns[i-1].End {
			t.Errorf("turn %d starts before previous turn ends", i)
		}
	}
}

func TestDiarize_SingleSpeakerHint(t *testing.T) {
	p := New()
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	result, err := p.Diarize(context.Background(), "meeting.wav", 1)
	if err != nil {
		t.Fatalf("diarize: %v", err)
	}
	if len(result.Turns) != 1 {
		t.Errorf("expected 1 turn with numSpeakers=1, got %d", len(result.Turns))
	}
	if _, ok := result.Embeddings["SPEAKER_01"]; ok {
		t.Error("expected SPEAKER_01 embedding removed with numSpeakers=1")
	}
}

func TestDiarize_MissingFileWithRequirePath(t *testing.T) {
	p := New()
	p.RequirePath = true
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	missing := filepath.Join(t.TempDir(), "nope.wav")
	_, err := p.Diarize(context.Background(), missing, 0)
	if err == nil {
		t.Error("expected error for missing audio file")
	}
}

func TestDiarize_EmbeddingsAreStable(t *testing.T) {
	p := New()
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	a, err := p.Diarize(context.Background(), "one.wav", 0)
	if err != nil {
		t.Fatalf("diarize: %v", err)
	}
	b, err := p.Diarize(context.Background(), "two.wav", 0)
	if err != nil {
		t.Fatalf("diarize: %v", err)
	}
	for speaker, emb := range a.Embeddings {
		other := b.Embeddings[speaker]
		for i := range emb {
			if emb[i] != other[i] {
				t.Errorf("speaker %s embedding differs between runs at index %d", speaker, i)
			}
		}
	}
}
