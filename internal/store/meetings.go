package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meeting-assistant-sidecar/internal/fusion"
)

// Meeting is one recorded session.
type Meeting struct {
	ID        int64
	UUID      string
	Title     string
	StartedAt time.Time
	EndedAt   *time.Time
	AudioPath string
	Status    string
}

// Meeting status values.
const (
	MeetingRecording = "recording"
	MeetingCompleted = "completed"
	MeetingFailed    = "failed"
)

// TranscriptSegment is one persisted speaker-attributed transcript row.
// SpeakerID is nil for unattributed text (or after the speaker was deleted).
type TranscriptSegment struct {
	ID         int64
	MeetingID  int64
	SpeakerID  *int64
	Start      float64
	End        float64
	Text       string
	Confidence *float64
}

// Summary is a persisted meeting summary record.
type Summary struct {
	ID        int64
	MeetingID int64
	Provider  string
	Model     string
	Content   string
	FilePath  string
	CreatedAt time.Time
}

// CreateMeeting inserts a new meeting in recording state and returns it.
func (s *Store) CreateMeeting(ctx context.Context, title string) (*Meeting, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (uuid, title, started_at, status) VALUES (?, ?, ?, ?)`,
		id, nullableString(title), now.Format(time.RFC3339Nano), MeetingRecording)
	if err != nil {
		return nil, fmt.Errorf("insert meeting: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMeeting(ctx, rowID)
}

// GetMeeting fetches a meeting by row id, or nil if absent.
func (s *Store) GetMeeting(ctx context.Context, id int64) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, uuid, title, started_at, ended_at, audio_path, status FROM meetings WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return m, nil
}

// GetMeetingByUUID fetches a meeting by its host-facing identifier.
func (s *Store) GetMeetingByUUID(ctx context.Context, id string) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, uuid, title, started_at, ended_at, audio_path, status FROM meetings WHERE uuid = ?`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting by uuid: %w", err)
	}
	return m, nil
}

// EndMeeting marks a meeting finished with the given status and audio path.
func (s *Store) EndMeeting(ctx context.Context, id int64, status, audioPath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET ended_at = ?, status = ?, audio_path = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), status, nullableString(audioPath), id)
	if err != nil {
		return fmt.Errorf("end meeting: %w", err)
	}
	return nil
}

// LinkMeetingSpeaker records which persisted speaker appeared in a meeting
// under which diarization label. Re-linking the same pair is a no-op.
func (s *Store) LinkMeetingSpeaker(ctx context.Context, meetingID, speakerID int64, label string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO meeting_speakers (meeting_id, speaker_id, diarization_label) VALUES (?, ?, ?)`,
		meetingID, speakerID, label)
	if err != nil {
		return fmt.Errorf("link meeting speaker: %w", err)
	}
	return nil
}

// MeetingSpeaker is one speaker's appearance in a meeting.
type MeetingSpeaker struct {
	MeetingID        int64
	SpeakerID        int64
	DiarizationLabel string
}

// SpeakersForMeeting returns the speakers linked to a meeting.
func (s *Store) SpeakersForMeeting(ctx context.Context, meetingID int64) ([]MeetingSpeaker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meeting_id, speaker_id, diarization_label
         FROM meeting_speakers WHERE meeting_id = ? ORDER BY speaker_id`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("query meeting speakers: %w", err)
	}
	defer rows.Close()

	var speakers []MeetingSpeaker
	for rows.Next() {
		var (
			ms    MeetingSpeaker
			label sql.NullString
		)
		if err := rows.Scan(&ms.MeetingID, &ms.SpeakerID, &label); err != nil {
			return nil, err
		}
		ms.DiarizationLabel = label.String
		speakers = append(speakers, ms)
	}
	return speakers, rows.Err()
}

// InsertTranscriptBlocks persists fused transcript blocks for a meeting,
// resolving each block's speaker label through the provided label-to-profile
// mapping (unresolved labels persist with a NULL speaker).
func (s *Store) InsertTranscriptBlocks(ctx context.Context, meetingID int64, blocks []fusion.Block, speakers map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transcript: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transcript_segments (meeting_id, speaker_id, start_time, end_time, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert transcript: %w", err)
	}
	defer stmt.Close()

	for _, b := range blocks {
		var speakerID any
		if id, ok := speakers[b.Speaker]; ok {
			speakerID = id
		}
		if _, err := stmt.ExecContext(ctx, meetingID, speakerID, b.Start, b.End, b.Text); err != nil {
			return fmt.Errorf("insert transcript segment: %w", err)
		}
	}
	return tx.Commit()
}

// TranscriptForMeeting returns a meeting's transcript segments in time order.
func (s *Store) TranscriptForMeeting(ctx context.Context, meetingID int64) ([]TranscriptSegment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meeting_id, speaker_id, start_time, end_time, text, confidence
         FROM transcript_segments WHERE meeting_id = ? ORDER BY start_time, id`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var segments []TranscriptSegment
	for rows.Next() {
		var (
			seg        TranscriptSegment
			speakerID  sql.NullInt64
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&seg.ID, &seg.MeetingID, &speakerID, &seg.Start, &seg.End, &seg.Text, &confidence); err != nil {
			return nil, err
		}
		if speakerID.Valid {
			seg.SpeakerID = &speakerID.Int64
		}
		if confidence.Valid {
			seg.Confidence = &confidence.Float64
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// InsertSummary records a generated summary for a meeting.
func (s *Store) InsertSummary(ctx context.Context, meetingID int64, provider, model, content, filePath string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (meeting_id, provider, model, content, file_path) VALUES (?, ?, ?, ?, ?)`,
		meetingID, provider, model, content, nullableString(filePath))
	if err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SummariesForMeeting returns the summaries stored for a meeting, newest last.
func (s *Store) SummariesForMeeting(ctx context.Context, meetingID int64) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meeting_id, provider, model, content, file_path, created_at
         FROM summaries WHERE meeting_id = ? ORDER BY id`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			sum      Summary
			filePath sql.NullString
			raw      string
		)
		if err := rows.Scan(&sum.ID, &sum.MeetingID, &sum.Provider, &sum.Model, &sum.Content, &filePath, &raw); err != nil {
			return nil, err
		}
		sum.FilePath = filePath.String
		if t, err := parseTimeString(raw); err == nil {
			sum.CreatedAt = t
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// SetSetting stores or replaces an application setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// GetSetting returns a setting value, or "" when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func scanMeeting(scanner interface{ Scan(dest ...any) error }) (*Meeting, error) {
	var (
		m          Meeting
		title      sql.NullString
		startedRaw string
		endedRaw   sql.NullString
		audioPath  sql.NullString
	)
	if err := scanner.Scan(&m.ID, &m.UUID, &title, &startedRaw, &endedRaw, &audioPath, &m.Status); err != nil {
		return nil, err
	}
	m.Title = title.String
	m.AudioPath = audioPath.String
	if t, err := parseTimeString(startedRaw); err == nil {
		m.StartedAt = t
	}
	if endedRaw.Valid {
		if t, err := parseTimeString(endedRaw.String); err == nil {
			m.EndedAt = &t
		}
	}
	return &m, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
