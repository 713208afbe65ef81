package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestDispatcher_OneResponsePerMessage(t *testing.T) {
	h, _ := newTestHandlers(t)

	input := strings.Join([]string{
		`{"type":"health"}`,
		``,
		`{"type":"unknown_thing"}`,
		`{"type":"health"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	d := NewDispatcher(h, strings.NewReader(input), &out)
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 response lines (blank input skipped), got %d: %q", len(lines), out.String())
	}

	var first, second, third map[string]any
	for i, target := range []*map[string]any{&first, &second, &third} {
		if err := json.Unmarshal([]byte(lines[i]), target); err != nil {
			t.Fatalf("response %d not valid JSON: %v", i, err)
		}
	}
	if first["type"] != "health" {
		t.Errorf("expected first response health, got %v", first)
	}
	if second["type"] != "error" {
		t.Errorf("expected second response error, got %v", second)
	}
	if third["type"] != "health" {
		t.Errorf("expected third response health, got %v", third)
	}
}

func TestDispatcher_InvalidJSONBecomesErrorLine(t *testing.T) {
	h, _ := newTestHandlers(t)

	var out bytes.Buffer
	d := NewDispatcher(h, strings.NewReader("this is not json\n"), &out)
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.String())), &resp); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	if resp["type"] != "error" {
		t.Errorf("expected error response, got %v", resp)
	}
}

func TestDispatcher_ContextCancellation(t *testing.T) {
	h, _ := newTestHandlers(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	d := NewDispatcher(h, strings.NewReader(`{"type":"health"}`+"\n"), &out)
	if err := d.Run(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDispatcher_EmptyInput(t *testing.T) {
	h, _ := newTestHandlers(t)

	var out bytes.Buffer
	d := NewDispatcher(h, strings.NewReader(""), &out)
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output for empty input, got %q", out.String())
	}
}
