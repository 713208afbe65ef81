package ipc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"meeting-assistant-sidecar/internal/diarize"
	"meeting-assistant-sidecar/internal/embedding"
	"meeting-assistant-sidecar/internal/events"
	"meeting-assistant-sidecar/internal/fusion"
	"meeting-assistant-sidecar/internal/models"
	"meeting-assistant-sidecar/internal/observability/logging"
	"meeting-assistant-sidecar/internal/observability/metrics"
	"meeting-assistant-sidecar/internal/speakerid"
	"meeting-assistant-sidecar/internal/store"
	"meeting-assistant-sidecar/internal/summaries"
	"meeting-assistant-sidecar/internal/summarize"
	"meeting-assistant-sidecar/internal/transcribe"
)

// validAudioExtensions lists the audio container formats the diarization
// pipeline accepts.
var validAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// Handlers routes parsed messages to the domain services. One Handlers
// instance is shared by the dispatcher, which calls Handle for one message
// at a time; the identify-and-persist cycle relies on that serialization.
type Handlers struct {
	engine     transcribe.Engine
	pipeline   diarize.Pipeline
	identifier identifier
	store      *store.Store
	summarizer *summarize.Service
	files      *summaries.Manager
	publisher  *events.Publisher
}

// identifier is the slice of speakerid.Identifier the handlers consume.
type identifier interface {
	Identify(observed, candidates map[string][]float32) []speakerid.Match
	IdentifyFromStore(ctx context.Context, observed map[string][]float32) ([]speakerid.Match, error)
	UpdateProfile(ctx context.Context, profileID int64, newEmbedding []float32) error
}

// NewHandlers wires the domain services into a message router. Any
// dependency may be nil; the corresponding messages then fail with an
// error response instead of crashing the bridge.
func NewHandlers(
	engine transcribe.Engine,
	pipeline diarize.Pipeline,
	ident identifier,
	st *store.Store,
	summarizer *summarize.Service,
	files *summaries.Manager,
	publisher *events.Publisher,
) *Handlers {
	return &Handlers{
		engine:     engine,
		pipeline:   pipeline,
		identifier: ident,
		store:      st,
		summarizer: summarizer,
		files:      files,
		publisher:  publisher,
	}
}

// Handle parses one raw message line and returns the response value to
// serialize. It never returns an error: every failure becomes an
// ErrorResponse so the host always gets exactly one reply per message.
func (h *Handlers) Handle(ctx context.Context, line []byte) any {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return errorResponse(fmt.Sprintf("Invalid JSON message: %v", err))
	}

	start := time.Now()
	var resp any
	switch env.Type {
	case MsgHealth:
		resp = HealthResponse{Type: RespHealth, Status: "ok"}
	case MsgStartMeeting:
		resp = h.handleStartMeeting(ctx, line)
	case MsgEndMeeting:
		resp = h.handleEndMeeting(ctx, line)
	case MsgTranscribeChunk:
		resp = h.handleTranscribeChunk(ctx, line)
	case MsgDiarize:
		resp = h.handleDiarize(ctx, line)
	case MsgIdentifySpeakers:
		resp = h.handleIdentifySpeakers(ctx, line)
	case MsgSummarize:
		resp = h.handleSummarize(ctx, line)
	case MsgFuseTranscript:
		resp = h.handleFuseTranscript(ctx, line)
	default:
		resp = errorResponse(fmt.Sprintf("Unknown message type: %s", env.Type))
	}

	_, failed := resp.(ErrorResponse)
	metrics.DefaultMetrics.RecordMessage(env.Type, failed, time.Since(start).Seconds())
	return resp
}

func (h *Handlers) handleStartMeeting(ctx context.Context, line []byte) any {
	var p startMeetingPayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid start_meeting payload: %v", err))
	}
	if h.store == nil {
		return errorResponse("Store not configured")
	}

	meeting, err := h.store.CreateMeeting(ctx, p.Title)
	if err != nil {
		return errorResponse(err.Error())
	}
	lg := logging.WithMeeting(meeting.UUID)
	lg.Info().Str("title", p.Title).Msg("Meeting started")
	return MeetingStartedResponse{
		Type:      RespMeetingStarted,
		MeetingID: meeting.UUID,
		Title:     meeting.Title,
	}
}

func (h *Handlers) handleEndMeeting(ctx context.Context, line []byte) any {
	var p endMeetingPayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid end_meeting payload: %v", err))
	}
	if p.MeetingID == "" {
		return errorResponse("Missing required field 'meeting_id' in end_meeting message")
	}
	if h.store == nil {
		return errorResponse("Store not configured")
	}

	meeting, err := h.store.GetMeetingByUUID(ctx, p.MeetingID)
	if err != nil {
		return errorResponse(err.Error())
	}
	if meeting == nil {
		return errorResponse(fmt.Sprintf("Unknown meeting: %s", p.MeetingID))
	}

	status := p.Status
	if status == "" {
		status = store.MeetingCompleted
	}
	if err := h.store.EndMeeting(ctx, meeting.ID, status, p.AudioPath); err != nil {
		return errorResponse(err.Error())
	}
	lg := logging.WithMeeting(p.MeetingID)
	lg.Info().Str("status", status).Msg("Meeting ended")
	return MeetingEndedResponse{
		Type:      RespMeetingEnded,
		MeetingID: p.MeetingID,
		Status:    status,
	}
}

func (h *Handlers) handleTranscribeChunk(ctx context.Context, line []byte) any {
	var p transcribeChunkPayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid transcribe_chunk payload: %v", err))
	}
	if p.AudioBase64 == "" {
		return errorResponse("Missing required field 'audio_base64' in transcribe_chunk message")
	}
	if h.engine == nil {
		return errorResponse("Transcription engine not configured")
	}

	audio, err := base64.StdEncoding.DecodeString(p.AudioBase64)
	if err != nil {
		return errorResponse(fmt.Sprintf("Invalid base64 audio data: %v", err))
	}

	filename := p.Filename
	if filename == "" {
		filename = "chunk.wav"
	}

	result, err := h.engine.Transcribe(ctx, audio, filename)
	if err != nil {
		return errorResponse(err.Error())
	}
	metrics.DefaultMetrics.RecordChunkTranscribed(len(audio))

	texts := make([]string, 0, len(result.Segments))
	for _, s := range result.Segments {
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
	}
	segments := result.Segments
	if segments == nil {
		segments = []transcribe.Segment{}
	}
	return TranscriptionResponse{
		Type:     RespTranscription,
		Text:     strings.Join(texts, " "),
		Segments: segments,
		Language: result.Language,
	}
}

func (h *Handlers) handleDiarize(ctx context.Context, line []byte) any {
	var p diarizePayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid diarize payload: %v", err))
	}
	if p.AudioPath == "" {
		return errorResponse("Missing required field 'audio_path' in diarize message")
	}
	if ext := strings.ToLower(filepath.Ext(p.AudioPath)); !validAudioExtensions[ext] {
		return errorResponse(fmt.Sprintf(
			"Invalid audio file extension: %q. Expected one of: %s",
			ext, strings.Join(sortedExtensions(), ", ")))
	}
	if h.pipeline == nil {
		return errorResponse("Diarization pipeline not configured")
	}

	result, err := h.pipeline.Diarize(ctx, p.AudioPath, p.NumSpeakers)
	if err != nil {
		return errorResponse(err.Error())
	}
	metrics.DefaultMetrics.RecordDiarization()

	turns := result.Turns
	if turns == nil {
		turns = []diarize.Turn{}
	}
	embeddings := result.Embeddings
	if embeddings == nil {
		embeddings = map[string][]float32{}
	}
	return DiarizationResponse{
		Type:       RespDiarizationComplete,
		Segments:   turns,
		Embeddings: embeddings,
	}
}

func (h *Handlers) handleIdentifySpeakers(ctx context.Context, line []byte) any {
	var p identifySpeakersPayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid identify_speakers payload: %v", err))
	}
	if p.Embeddings == nil {
		return errorResponse("Missing required field 'embeddings' in identify_speakers message")
	}
	if h.identifier == nil {
		return errorResponse("Speaker identifier not configured")
	}

	// An explicit candidate set means stateless matching: no profile
	// library, no persistence.
	if p.KnownEmbeddings != nil {
		matches := h.identifier.Identify(p.Embeddings, p.KnownEmbeddings)
		recordIdentify(matches)
		return SpeakerMatchResponse{Type: RespSpeakerMatch, Matches: matches}
	}

	matches, err := h.identifier.IdentifyFromStore(ctx, p.Embeddings)
	if err != nil {
		return errorResponse(err.Error())
	}
	recordIdentify(matches)

	if err := h.persistMatches(ctx, p, matches); err != nil {
		return errorResponse(err.Error())
	}
	return SpeakerMatchResponse{Type: RespSpeakerMatch, Matches: matches}
}

// persistMatches folds each matched observation into the profile's running
// average and creates fresh profiles for unmatched labels, so next meeting's
// identification has more to work with.
func (h *Handlers) persistMatches(ctx context.Context, p identifySpeakersPayload, matches []speakerid.Match) error {
	if h.store == nil {
		return nil
	}

	var meeting *store.Meeting
	if p.MeetingID != "" {
		m, err := h.store.GetMeetingByUUID(ctx, p.MeetingID)
		if err != nil {
			return err
		}
		meeting = m
	}

	for _, m := range matches {
		vec, ok := p.Embeddings[m.SpeakerLabel]
		if !ok {
			continue
		}

		var profileID int64
		if m.MatchedName != nil {
			profile, err := h.store.GetProfileByName(ctx, *m.MatchedName)
			if err != nil {
				return err
			}
			if profile == nil {
				// Deleted between match and persist; treat as unmatched.
				continue
			}
			profileID = profile.ID
			if err := h.identifier.UpdateProfile(ctx, profileID, vec); err != nil {
				return err
			}
			metrics.DefaultMetrics.RecordProfileUpdate()
		} else {
			id, err := h.store.CreateProfile(ctx, m.SpeakerLabel)
			if err != nil {
				return err
			}
			profileID = id
			if err := h.store.UpdateProfileEmbedding(ctx, id, embedding.Encode(vec), 1); err != nil {
				return err
			}
			metrics.DefaultMetrics.RecordProfileCreated()
			lg := logging.WithComponent("ipc")
			lg.Info().
				Str("label", m.SpeakerLabel).
				Int64("profileId", id).
				Msg("Created profile for unmatched speaker")
		}

		if meeting != nil {
			if err := h.store.LinkMeetingSpeaker(ctx, meeting.ID, profileID, m.SpeakerLabel); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handlers) handleSummarize(ctx context.Context, line []byte) any {
	var p summarizePayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid summarize payload: %v", err))
	}
	if p.Transcript == "" {
		return errorResponse("Missing required field 'transcript' in summarize message")
	}
	if h.summarizer == nil {
		return errorResponse("Summarization service not configured")
	}

	// Provider and model are optional; the service substitutes configured
	// defaults for whichever is absent.
	result, err := h.summarizer.Summarize(ctx, summarize.Request{
		Transcript: p.Transcript,
		Provider:   p.Provider,
		Model:      p.Model,
	})
	if err != nil {
		return errorResponse(err.Error())
	}

	resp := SummaryCompleteResponse{
		Type:       RespSummaryComplete,
		Markdown:   result.Markdown,
		Provider:   result.Provider,
		Model:      result.Model,
		TokenCount: result.TokenCount,
	}

	if h.files != nil && p.SpeakerName != "" && p.Date != "" {
		path, err := h.files.SaveSummary(p.SpeakerName, p.Date, result.Markdown)
		if err != nil {
			return errorResponse(fmt.Sprintf("Summary generated but not saved: %v", err))
		}
		resp.FilePath = path
	}

	if h.store != nil && p.MeetingID != "" {
		meeting, err := h.store.GetMeetingByUUID(ctx, p.MeetingID)
		if err != nil {
			return errorResponse(err.Error())
		}
		if meeting != nil {
			if _, err := h.store.InsertSummary(ctx, meeting.ID, result.Provider, result.Model, result.Markdown, resp.FilePath); err != nil {
				return errorResponse(err.Error())
			}
			h.publishSummaryEvent(ctx, p.MeetingID, result, resp.FilePath)
		}
	}
	return resp
}

func (h *Handlers) publishSummaryEvent(ctx context.Context, meetingUUID string, result summarize.Result, filePath string) {
	if h.publisher == nil {
		return
	}
	event := models.SummaryEvent{
		EventType:   "summary_complete",
		MeetingUUID: meetingUUID,
		Timestamp:   time.Now().UnixMilli(),
		Provider:    result.Provider,
		Model:       result.Model,
		TokenCount:  result.TokenCount,
		FilePath:    filePath,
	}
	if err := h.publisher.PublishSummary(ctx, meetingUUID, event); err != nil {
		lg := logging.WithComponent("ipc")
		lg.Warn().Err(err).Msg("Failed to publish summary event")
	}
}

func (h *Handlers) handleFuseTranscript(ctx context.Context, line []byte) any {
	var p fuseTranscriptPayload
	if err := json.Unmarshal(line, &p); err != nil {
		return errorResponse(fmt.Sprintf("Invalid fuse_transcript payload: %v", err))
	}
	if p.Turns == nil {
		return errorResponse("Missing required field 'turns' in fuse_transcript message")
	}
	if p.Segments == nil {
		return errorResponse("Missing required field 'segments' in fuse_transcript message")
	}

	blocks := fusion.Fuse(p.Turns, p.Segments)
	metrics.DefaultMetrics.RecordFusion(len(blocks))
	if blocks == nil {
		blocks = []fusion.Block{}
	}

	if h.store != nil && p.MeetingID != "" {
		meeting, err := h.store.GetMeetingByUUID(ctx, p.MeetingID)
		if err != nil {
			return errorResponse(err.Error())
		}
		if meeting != nil {
			speakers, err := h.resolveSpeakers(ctx, blocks)
			if err != nil {
				return errorResponse(err.Error())
			}
			if err := h.store.InsertTranscriptBlocks(ctx, meeting.ID, blocks, speakers); err != nil {
				return errorResponse(err.Error())
			}
			h.publishTranscriptEvent(ctx, p.MeetingID, blocks)
		}
	}
	return FusionCompleteResponse{Type: RespFusionComplete, Blocks: blocks}
}

// resolveSpeakers maps block speaker names to profile ids where a profile
// with that exact name exists. Raw diarization labels that never got a
// profile stay unmapped and persist as NULL attributions.
func (h *Handlers) resolveSpeakers(ctx context.Context, blocks []fusion.Block) (map[string]int64, error) {
	speakers := make(map[string]int64)
	for _, b := range blocks {
		if _, seen := speakers[b.Speaker]; seen {
			continue
		}
		profile, err := h.store.GetProfileByName(ctx, b.Speaker)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			speakers[b.Speaker] = profile.ID
		}
	}
	return speakers, nil
}

func (h *Handlers) publishTranscriptEvent(ctx context.Context, meetingUUID string, blocks []fusion.Block) {
	if h.publisher == nil {
		return
	}
	event := models.TranscriptEvent{
		EventType:   "transcript_fused",
		MeetingUUID: meetingUUID,
		Timestamp:   time.Now().UnixMilli(),
	}
	for _, b := range blocks {
		event.Blocks = append(event.Blocks, models.TranscriptText{
			Speaker: b.Speaker,
			Start:   b.Start,
			End:     b.End,
			Text:    b.Text,
		})
	}
	if err := h.publisher.PublishTranscript(ctx, meetingUUID, event); err != nil {
		lg := logging.WithComponent("ipc")
		lg.Warn().Err(err).Msg("Failed to publish transcript event")
	}
}

func recordIdentify(matches []speakerid.Match) {
	matched, unmatched := 0, 0
	for _, m := range matches {
		metrics.DefaultMetrics.RecordMatchConfidence(m.Confidence)
		if m.MatchedName != nil {
			matched++
		} else {
			unmatched++
		}
	}
	metrics.DefaultMetrics.RecordIdentify(matched, unmatched)
}

func sortedExtensions() []string {
	exts := make([]string, 0, len(validAudioExtensions))
	for ext := range validAudioExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
