package summaries

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestSaveAndGetSummary(t *testing.T) {
	m := newTestManager(t)

	path, err := m.SaveSummary("Alice Smith", "2026-08-30", "# Meeting notes")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "2026-08-30.md" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != "alice_smith" {
		t.Errorf("expected sanitized dir 'alice_smith', got %s", filepath.Base(filepath.Dir(path)))
	}

	content, ok, err := m.GetSummary("Alice Smith", "2026-08-30")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected summary to exist")
	}
	if content != "# Meeting notes" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestGetSummary_Missing(t *testing.T) {
	m := newTestManager(t)
	_, ok, err := m.GetSummary("Nobody", "2026-01-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("expected missing summary")
	}
}

func TestListSpeakers(t *testing.T) {
	m := newTestManager(t)

	if speakers, err := m.ListSpeakers(); err != nil || len(speakers) != 0 {
		t.Errorf("expected empty list, got %v, err %v", speakers, err)
	}

	for _, name := range []string{"Zoe", "Alice", "Bob"} {
		if _, err := m.SaveSummary(name, "2026-08-30", "x"); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	speakers, err := m.ListSpeakers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"alice", "bob", "zoe"}
	if len(speakers) != len(want) {
		t.Fatalf("expected %d speakers, got %d", len(want), len(speakers))
	}
	for i := range want {
		if speakers[i] != want[i] {
			t.Errorf("speakers[%d] = %s, want %s", i, speakers[i], want[i])
		}
	}
}

func TestListSummariesForSpeaker_Chronological(t *testing.T) {
	m := newTestManager(t)
	for _, date := range []string{"2026-03-01", "2026-01-15", "2026-02-08"} {
		if _, err := m.SaveSummary("Alice", date, "x"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	dates, err := m.ListSummariesForSpeaker("Alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2026-01-15", "2026-02-08", "2026-03-01"}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestDeleteSummary(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.SaveSummary("Alice", "2026-08-30", "x"); err != nil {
		t.Fatalf("save: %v", err)
	}

	deleted, err := m.DeleteSummary("Alice", "2026-08-30")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("expected deletion to report true")
	}

	deleted, err = m.DeleteSummary("Alice", "2026-08-30")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Error("expected second deletion to report false")
	}
}

func TestValidateDate(t *testing.T) {
	valid := []string{"2026-08-30", "1999-01-01"}
	for _, d := range valid {
		if err := ValidateDate(d); err != nil {
			t.Errorf("expected %q valid: %v", d, err)
		}
	}
	invalid := []string{"2026-8-30", "20260830", "2026-08-30T10:00", "../etc", ""}
	for _, d := range invalid {
		if err := ValidateDate(d); err == nil {
			t.Errorf("expected %q invalid", d)
		}
	}
}

func TestSanitizeSpeakerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice Smith", "alice_smith"},
		{"Bob O'Brien", "bob_obrien"},
		{"jean-luc", "jean-luc"},
		{"..evil", "evil"},
		{"--dash", "dash"},
		{"UPPER case", "upper_case"},
	}
	for _, tt := range tests {
		got, err := SanitizeSpeakerName(tt.in)
		if err != nil {
			t.Errorf("sanitize %q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("sanitize %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeSpeakerName_Empty(t *testing.T) {
	for _, in := range []string{"", "...", "!!!", "日本語"} {
		if _, err := SanitizeSpeakerName(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestSummaryPath_TraversalBlocked(t *testing.T) {
	m := newTestManager(t)
	// Sanitization strips slashes and leading dots, so hostile names
	// either error out or resolve inside the base directory.
	path, err := m.SummaryPath("../../escape", "2026-08-30")
	if err == nil && !strings.HasPrefix(path, m.baseDir+string(filepath.Separator)) {
		t.Errorf("path %s escapes base dir", path)
	}
}
