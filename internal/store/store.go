// Package store manages the local SQLite database holding speaker profiles,
// meetings, transcript segments, summaries and settings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"meeting-assistant-sidecar/internal/speakerid"
)

// Store wraps the SQLite connection and schema.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the database at path (":memory:" for ephemeral use) and
// applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so cap the pool at one connection for the in-memory case.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS speakers (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            embedding BLOB,
            embedding_count INTEGER DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS meetings (
            id INTEGER PRIMARY KEY,
            uuid TEXT NOT NULL UNIQUE,
            title TEXT,
            started_at TIMESTAMP NOT NULL,
            ended_at TIMESTAMP,
            audio_path TEXT,
            status TEXT DEFAULT 'recording',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS meeting_speakers (
            meeting_id INTEGER REFERENCES meetings(id),
            speaker_id INTEGER REFERENCES speakers(id),
            diarization_label TEXT,
            PRIMARY KEY (meeting_id, speaker_id)
        )`,
		`CREATE TABLE IF NOT EXISTS transcript_segments (
            id INTEGER PRIMARY KEY,
            meeting_id INTEGER REFERENCES meetings(id),
            speaker_id INTEGER REFERENCES speakers(id),
            start_time REAL NOT NULL,
            end_time REAL NOT NULL,
            text TEXT NOT NULL,
            confidence REAL
        )`,
		`CREATE TABLE IF NOT EXISTS summaries (
            id INTEGER PRIMARY KEY,
            meeting_id INTEGER REFERENCES meetings(id),
            provider TEXT NOT NULL,
            model TEXT NOT NULL,
            content TEXT NOT NULL,
            file_path TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        )`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// --- speakerid.ProfileStore implementation ---

// GetAllProfiles returns every stored speaker profile.
func (s *Store) GetAllProfiles(ctx context.Context) ([]speakerid.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, embedding, embedding_count FROM speakers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer rows.Close()

	var profiles []speakerid.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// GetProfile fetches a speaker profile by id, or nil if absent.
func (s *Store) GetProfile(ctx context.Context, id int64) (*speakerid.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, embedding, embedding_count FROM speakers WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	return p, nil
}

// GetProfileByName fetches the first speaker profile with the given display
// name, or nil if absent. Name is the business key for host-side lookups.
func (s *Store) GetProfileByName(ctx context.Context, name string) (*speakerid.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, embedding, embedding_count FROM speakers WHERE name = ? ORDER BY id LIMIT 1`, name)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get speaker by name: %w", err)
	}
	return p, nil
}

// CreateProfile inserts a new speaker with no embedding and returns its id.
func (s *Store) CreateProfile(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO speakers (name, embedding, embedding_count) VALUES (?, NULL, 0)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert speaker: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateProfileEmbedding stores a new embedding blob and sample count for an
// existing speaker.
func (s *Store) UpdateProfileEmbedding(ctx context.Context, id int64, blob []byte, count int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE speakers SET embedding = ?, embedding_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		blob, count, id)
	if err != nil {
		return fmt.Errorf("update speaker embedding: %w", err)
	}
	return nil
}

// RenameProfile updates a speaker's display name. Hosts use this to replace
// the ephemeral diarization label a new profile is created under.
func (s *Store) RenameProfile(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE speakers SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename speaker: %w", err)
	}
	return nil
}

// DeleteProfile removes a speaker. Transcript attributions referencing the
// speaker are nulled rather than left dangling, and meeting links are
// removed, all in one transaction.
func (s *Store) DeleteProfile(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete speaker: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE transcript_segments SET speaker_id = NULL WHERE speaker_id = ?`, id); err != nil {
		return false, fmt.Errorf("null transcript attributions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meeting_speakers WHERE speaker_id = ?`, id); err != nil {
		return false, fmt.Errorf("unlink meeting speakers: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM speakers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete speaker: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete speaker: %w", err)
	}
	return affected > 0, nil
}

func scanProfile(scanner interface{ Scan(dest ...any) error }) (*speakerid.Profile, error) {
	var (
		id    int64
		name  string
		blob  []byte
		count sql.NullInt64
	)
	if err := scanner.Scan(&id, &name, &blob, &count); err != nil {
		return nil, err
	}
	p := &speakerid.Profile{
		ID:        id,
		Name:      name,
		Embedding: blob,
	}
	if count.Valid {
		p.EmbeddingCount = int(count.Int64)
	}
	return p, nil
}
