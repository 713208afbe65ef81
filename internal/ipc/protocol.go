// Package ipc implements the JSON-over-stdin/stdout bridge to the host
// process. Each inbound line is one JSON message with a "type" field; each
// response is one JSON line. Errors always come back as
// {"type":"error","message":...} so the host never has to guess.
package ipc

import (
	"meeting-assistant-sidecar/internal/diarize"
	"meeting-assistant-sidecar/internal/fusion"
	"meeting-assistant-sidecar/internal/speakerid"
	"meeting-assistant-sidecar/internal/transcribe"
)

// Inbound message types.
const (
	MsgStartMeeting     = "start_meeting"
	MsgEndMeeting       = "end_meeting"
	MsgTranscribeChunk  = "transcribe_chunk"
	MsgDiarize          = "diarize"
	MsgIdentifySpeakers = "identify_speakers"
	MsgSummarize        = "summarize"
	MsgFuseTranscript   = "fuse_transcript"
	MsgHealth           = "health"
)

// Outbound response types.
const (
	RespMeetingStarted      = "meeting_started"
	RespMeetingEnded        = "meeting_ended"
	RespTranscription       = "transcription"
	RespDiarizationComplete = "diarization_complete"
	RespSpeakerMatch        = "speaker_match"
	RespSummaryComplete     = "summary_complete"
	RespFusionComplete      = "fusion_complete"
	RespHealth              = "health"
	RespError               = "error"
)

// envelope extracts the type discriminator from a raw message line.
type envelope struct {
	Type string `json:"type"`
}

// startMeetingPayload opens a meeting row. The returned meeting_id keys all
// later persistence for this meeting.
type startMeetingPayload struct {
	Title string `json:"title"`
}

// endMeetingPayload closes a meeting. Status defaults to "completed";
// AudioPath records where the full recording landed, if anywhere.
type endMeetingPayload struct {
	MeetingID string `json:"meeting_id"`
	Status    string `json:"status"`
	AudioPath string `json:"audio_path"`
}

// transcribeChunkPayload carries one base64-encoded audio chunk.
type transcribeChunkPayload struct {
	AudioBase64 string `json:"audio_base64"`
	Filename    string `json:"filename"`
}

// diarizePayload points at a recorded audio file on disk.
type diarizePayload struct {
	AudioPath   string `json:"audio_path"`
	NumSpeakers int    `json:"num_speakers"`
}

// identifySpeakersPayload carries per-label embeddings from diarization.
// KnownEmbeddings overrides the persistent profile library for stateless
// matching; when absent the stored profiles are used and matches feed the
// running averages.
type identifySpeakersPayload struct {
	Embeddings      map[string][]float32 `json:"embeddings"`
	KnownEmbeddings map[string][]float32 `json:"known_embeddings"`
	MeetingID       string               `json:"meeting_id"`
}

// summarizePayload asks for an LLM summary of a diarized transcript.
// SpeakerName and Date are optional; when both are present the summary is
// also written to the per-speaker markdown archive.
type summarizePayload struct {
	Transcript  string `json:"transcript"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	SpeakerName string `json:"speaker_name"`
	Date        string `json:"date"`
	MeetingID   string `json:"meeting_id"`
}

// fuseTranscriptPayload carries diarization turns and timed transcript
// spans to merge into a speaker-attributed transcript.
type fuseTranscriptPayload struct {
	Turns     []fusion.Turn `json:"turns"`
	Segments  []fusion.Span `json:"segments"`
	MeetingID string        `json:"meeting_id"`
}

// ErrorResponse is the uniform failure shape.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HealthResponse reports sidecar liveness.
type HealthResponse struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// MeetingStartedResponse returns the id the host must echo in later
// messages that should persist against this meeting.
type MeetingStartedResponse struct {
	Type      string `json:"type"`
	MeetingID string `json:"meeting_id"`
	Title     string `json:"title,omitempty"`
}

// MeetingEndedResponse confirms the meeting row was closed.
type MeetingEndedResponse struct {
	Type      string `json:"type"`
	MeetingID string `json:"meeting_id"`
	Status    string `json:"status"`
}

// TranscriptionResponse returns timed segments for one audio chunk.
type TranscriptionResponse struct {
	Type      string               `json:"type"`
	Text      string               `json:"text"`
	Segments  []transcribe.Segment `json:"segments"`
	IsPartial bool                 `json:"is_partial"`
	Language  string               `json:"language,omitempty"`
}

// DiarizationResponse returns speaker turns and per-speaker embeddings.
type DiarizationResponse struct {
	Type       string               `json:"type"`
	Segments   []diarize.Turn       `json:"segments"`
	Embeddings map[string][]float32 `json:"embeddings"`
}

// SpeakerMatchResponse returns one match per observed diarization label.
type SpeakerMatchResponse struct {
	Type    string            `json:"type"`
	Matches []speakerid.Match `json:"matches"`
}

// SummaryCompleteResponse returns the generated summary and its metadata.
type SummaryCompleteResponse struct {
	Type       string `json:"type"`
	Markdown   string `json:"markdown"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	TokenCount int    `json:"token_count"`
	FilePath   string `json:"file_path,omitempty"`
}

// FusionCompleteResponse returns the fused transcript blocks.
type FusionCompleteResponse struct {
	Type   string         `json:"type"`
	Blocks []fusion.Block `json:"blocks"`
}

func errorResponse(message string) ErrorResponse {
	return ErrorResponse{Type: RespError, Message: message}
}
