// Package summaries manages markdown summary file storage organized by
// person and date.
package summaries

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nameStripRe = regexp.MustCompile(`[^a-z0-9_\-]`)
	// ErrEmptyName is returned when a speaker name sanitizes to nothing.
	ErrEmptyName = errors.New("summaries: speaker name is empty after sanitization")
)

// Manager stores summary markdown files under base/<speaker>/<date>.md.
type Manager struct {
	baseDir string
}

// NewManager creates a Manager rooted at baseDir. The directory is
// created lazily on first save.
func NewManager(baseDir string) (*Manager, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &Manager{baseDir: abs}, nil
}

// SaveSummary writes a summary markdown file and returns its path.
func (m *Manager) SaveSummary(speakerName, date, content string) (string, error) {
	path, err := m.SummaryPath(speakerName, date)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// GetSummary reads a summary file. It returns ok=false when the file
// does not exist.
func (m *Manager) GetSummary(speakerName, date string) (string, bool, error) {
	path, err := m.SummaryPath(speakerName, date)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// ListSpeakers lists all speakers who have summaries, sorted alphabetically.
func (m *Manager) ListSpeakers() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var speakers []string
	for _, e := range entries {
		if e.IsDir() {
			speakers = append(speakers, e.Name())
		}
	}
	sort.Strings(speakers)
	return speakers, nil
}

// ListSummariesForSpeaker lists all summary dates for a speaker, sorted
// chronologically. Dates sort lexically because of the fixed format.
func (m *Manager) ListSummariesForSpeaker(speakerName string) ([]string, error) {
	sanitized, err := SanitizeSpeakerName(speakerName)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(m.baseDir, sanitized))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		if name := e.Name(); strings.HasSuffix(name, ".md") {
			dates = append(dates, strings.TrimSuffix(name, ".md"))
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// DeleteSummary removes a summary file. It reports whether a file was
// actually deleted.
func (m *Manager) DeleteSummary(speakerName, date string) (bool, error) {
	path, err := m.SummaryPath(speakerName, date)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SummaryPath returns the expected path for a summary file. The file may
// not exist yet.
func (m *Manager) SummaryPath(speakerName, date string) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	sanitized, err := SanitizeSpeakerName(speakerName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(m.baseDir, sanitized, date+".md")
	// Final guard: the joined path must stay inside the base directory.
	if !strings.HasPrefix(path, m.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("summaries: path escapes base directory")
	}
	return path, nil
}

// ValidateDate checks the YYYY-MM-DD format. The strict format doubles
// as a path traversal guard since dates become file names.
func ValidateDate(date string) error {
	if !datePattern.MatchString(date) {
		return fmt.Errorf("summaries: invalid date format %q, must be YYYY-MM-DD", date)
	}
	return nil
}

// SanitizeSpeakerName converts a display name into a safe directory name:
// lowercase, spaces to underscores, everything outside [a-z0-9_-] removed,
// leading dots and dashes stripped.
func SanitizeSpeakerName(name string) (string, error) {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = nameStripRe.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, ".-")
	if s == "" {
		return "", ErrEmptyName
	}
	return s, nil
}
