package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"meeting-assistant-sidecar/internal/embedding"
	"meeting-assistant-sidecar/internal/fusion"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_InMemorySharedAcrossConnections(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Concurrent use forces database/sql to hand out pooled connections;
	// every one of them must see the same in-memory database and schema.
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CreateProfile(ctx, fmt.Sprintf("Speaker %d", i)); err != nil {
				errs <- err
				return
			}
			if _, err := s.GetAllProfiles(ctx); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent access: %v", err)
	}

	profiles, err := s.GetAllProfiles(ctx)
	if err != nil {
		t.Fatalf("get profiles: %v", err)
	}
	if len(profiles) != 8 {
		t.Errorf("expected 8 profiles, got %d", len(profiles))
	}
}

func TestProfileLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateProfile(ctx, "SPEAKER_00")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	p, err := s.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p == nil {
		t.Fatal("expected profile, got nil")
	}
	if p.Name != "SPEAKER_00" {
		t.Errorf("expected name SPEAKER_00, got %s", p.Name)
	}
	if p.Embedding != nil || p.EmbeddingCount != 0 {
		t.Errorf("new profile should have no embedding: blob=%v count=%d", p.Embedding, p.EmbeddingCount)
	}

	blob := embedding.Encode([]float32{1, 0, 0})
	if err := s.UpdateProfileEmbedding(ctx, id, blob, 1); err != nil {
		t.Fatalf("update embedding: %v", err)
	}

	p, _ = s.GetProfile(ctx, id)
	if p.EmbeddingCount != 1 || len(p.Embedding) != 12 {
		t.Errorf("embedding not persisted: count=%d len=%d", p.EmbeddingCount, len(p.Embedding))
	}

	if err := s.RenameProfile(ctx, id, "Alice"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	byName, err := s.GetProfileByName(ctx, "Alice")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if byName == nil || byName.ID != id {
		t.Errorf("lookup by name failed: %+v", byName)
	}
}

func TestGetProfile_Absent(t *testing.T) {
	s := openTestStore(t)

	p, err := s.GetProfile(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for absent profile, got %+v", p)
	}
}

func TestGetAllProfiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	names := []string{"Alice", "Bob", "Carol"}
	for _, n := range names {
		if _, err := s.CreateProfile(ctx, n); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	profiles, err := s.GetAllProfiles(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(profiles) != len(names) {
		t.Fatalf("expected %d profiles, got %d", len(names), len(profiles))
	}
	for i, n := range names {
		if profiles[i].Name != n {
			t.Errorf("profile %d: expected %s, got %s", i, n, profiles[i].Name)
		}
	}
}

func TestDeleteProfile_NullsAttributions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	speakerID, err := s.CreateProfile(ctx, "Alice")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	meeting, err := s.CreateMeeting(ctx, "standup")
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	if err := s.LinkMeetingSpeaker(ctx, meeting.ID, speakerID, "SPEAKER_00"); err != nil {
		t.Fatalf("link: %v", err)
	}
	blocks := []fusion.Block{{Speaker: "SPEAKER_00", Start: 0, End: 2, Text: "hello"}}
	if err := s.InsertTranscriptBlocks(ctx, meeting.ID, blocks, map[string]int64{"SPEAKER_00": speakerID}); err != nil {
		t.Fatalf("insert transcript: %v", err)
	}

	deleted, err := s.DeleteProfile(ctx, speakerID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected profile to be deleted")
	}

	segments, err := s.TranscriptForMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("load transcript: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected transcript to survive, got %d segments", len(segments))
	}
	if segments[0].SpeakerID != nil {
		t.Errorf("expected nulled attribution, got speaker %d", *segments[0].SpeakerID)
	}
}

func TestMeetingLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMeeting(ctx, "planning")
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	if m.Status != MeetingRecording {
		t.Errorf("expected status recording, got %s", m.Status)
	}
	if m.UUID == "" {
		t.Error("expected a generated uuid")
	}

	byUUID, err := s.GetMeetingByUUID(ctx, m.UUID)
	if err != nil {
		t.Fatalf("get by uuid: %v", err)
	}
	if byUUID == nil || byUUID.ID != m.ID {
		t.Errorf("uuid lookup failed: %+v", byUUID)
	}

	if err := s.EndMeeting(ctx, m.ID, MeetingCompleted, "/tmp/audio.wav"); err != nil {
		t.Fatalf("end meeting: %v", err)
	}
	m, _ = s.GetMeeting(ctx, m.ID)
	if m.Status != MeetingCompleted {
		t.Errorf("expected status completed, got %s", m.Status)
	}
	if m.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}
	if m.AudioPath != "/tmp/audio.wav" {
		t.Errorf("expected audio path persisted, got %q", m.AudioPath)
	}
}

func TestSpeakersForMeeting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	meeting, err := s.CreateMeeting(ctx, "sync")
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	alice, _ := s.CreateProfile(ctx, "Alice")
	bob, _ := s.CreateProfile(ctx, "Bob")
	if err := s.LinkMeetingSpeaker(ctx, meeting.ID, alice, "SPEAKER_00"); err != nil {
		t.Fatalf("link alice: %v", err)
	}
	if err := s.LinkMeetingSpeaker(ctx, meeting.ID, bob, "SPEAKER_01"); err != nil {
		t.Fatalf("link bob: %v", err)
	}

	speakers, err := s.SpeakersForMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("speakers for meeting: %v", err)
	}
	if len(speakers) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(speakers))
	}
	if speakers[0].DiarizationLabel != "SPEAKER_00" {
		t.Errorf("unexpected label %q", speakers[0].DiarizationLabel)
	}
}

func TestTranscriptBlocks_UnresolvedLabel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m, _ := s.CreateMeeting(ctx, "")
	blocks := []fusion.Block{
		{Speaker: "SPEAKER_00", Start: 0, End: 1, Text: "first"},
		{Speaker: "SPEAKER_01", Start: 1, End: 2, Text: "second"},
	}
	speakerID, _ := s.CreateProfile(ctx, "Alice")

	err := s.InsertTranscriptBlocks(ctx, m.ID, blocks, map[string]int64{"SPEAKER_00": speakerID})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	segments, _ := s.TranscriptForMeeting(ctx, m.ID)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].SpeakerID == nil || *segments[0].SpeakerID != speakerID {
		t.Errorf("expected first segment attributed to %d, got %v", speakerID, segments[0].SpeakerID)
	}
	if segments[1].SpeakerID != nil {
		t.Errorf("expected unresolved label to persist as NULL, got %v", *segments[1].SpeakerID)
	}
}

func TestSummaries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m, _ := s.CreateMeeting(ctx, "retro")
	id, err := s.InsertSummary(ctx, m.ID, "openai", "gpt-4o-mini", "# Meeting", "/summaries/alice/2026-08-30.md")
	if err != nil {
		t.Fatalf("insert summary: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero summary id")
	}

	summaries, err := s.SummariesForMeeting(ctx, m.ID)
	if err != nil {
		t.Fatalf("load summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Provider != "openai" || summaries[0].Content != "# Meeting" {
		t.Errorf("summary not persisted correctly: %+v", summaries[0])
	}
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if v, err := s.GetSetting(ctx, "missing"); err != nil || v != "" {
		t.Errorf("expected empty value for unset key, got %q err=%v", v, err)
	}

	if err := s.SetSetting(ctx, "language", "en"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSetting(ctx, "language", "de"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, err := s.GetSetting(ctx, "language")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "de" {
		t.Errorf("expected de, got %q", v)
	}
}
