// Package models defines the data structures for published meeting events.
package models

// TranscriptEvent announces a fused, speaker-attributed transcript for a
// completed meeting.
type TranscriptEvent struct {
	EventType   string           `json:"eventType"`
	MeetingUUID string           `json:"meetingId"`
	Timestamp   int64            `json:"timestamp"`
	Blocks      []TranscriptText `json:"blocks"`
}

// TranscriptText is one speaker-attributed block inside a TranscriptEvent.
type TranscriptText struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// SummaryEvent announces a generated meeting summary.
type SummaryEvent struct {
	EventType   string `json:"eventType"`
	MeetingUUID string `json:"meetingId"`
	Timestamp   int64  `json:"timestamp"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	TokenCount  int    `json:"tokenCount"`
	FilePath    string `json:"filePath,omitempty"`
}
