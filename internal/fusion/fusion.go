// Package fusion merges diarization speaker turns with transcript timing via
// interval overlap. Everything here is pure: inputs are never mutated and no
// I/O happens, so the functions are safe from any goroutine.
package fusion

import (
	"math"
	"strings"
)

// Turn is one diarization speaker turn. Speaker is the meeting-local label
// ("SPEAKER_00"), not a persisted speaker identity.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Span is a transcript fragment (segment- or word-level) with timing.
type Span struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Assignment pairs a span with the turn it overlaps most. Matched is false
// when no turn has strictly positive overlap with the span.
type Assignment struct {
	Span    Span   `json:"span"`
	Speaker string `json:"speaker,omitempty"`
	Matched bool   `json:"matched"`
}

// Block is one speaker-attributed chunk of the fused transcript.
type Block struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// overlap returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd), or 0 when they do not intersect. Degenerate (zero- or
// negative-length) intervals fall out as zero overlap.
func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	o := math.Min(aEnd, bEnd) - math.Max(aStart, bStart)
	if o <= 0 {
		return 0
	}
	return o
}

// MaxOverlapAssign assigns each span to the turn it overlaps most.
//
// The scan is a deliberate O(n*m) pass: meeting-scale inputs are hundreds of
// segments, and the naive loop stays trivially auditable. The running best
// starts at zero and is replaced only on a strictly greater overlap, so ties
// go to the first turn in input order and a span with no positive overlap
// stays unassigned.
func MaxOverlapAssign(turns []Turn, spans []Span) []Assignment {
	out := make([]Assignment, len(spans))
	for i, sp := range spans {
		best := 0.0
		var speaker string
		matched := false

		for _, t := range turns {
			if o := overlap(sp.Start, sp.End, t.Start, t.End); o > best {
				best = o
				speaker = t.Speaker
				matched = true
			}
		}

		out[i] = Assignment{Span: sp, Speaker: speaker, Matched: matched}
	}
	return out
}

// Fuse builds one speaker-attributed text block per diarization turn, in the
// turns' input order.
//
// Every span with strictly positive overlap against a turn contributes to it,
// so a span straddling a turn boundary lands in both turns. Contributing
// texts are trimmed, empty fragments are skipped, and the rest are joined
// with single spaces in span input order. A turn with no overlapping spans
// yields an empty Text.
func Fuse(turns []Turn, spans []Span) []Block {
	blocks := make([]Block, 0, len(turns))
	for _, t := range turns {
		var parts []string
		for _, sp := range spans {
			if overlap(sp.Start, sp.End, t.Start, t.End) <= 0 {
				continue
			}
			text := strings.TrimSpace(sp.Text)
			if text == "" {
				continue
			}
			parts = append(parts, text)
		}
		blocks = append(blocks, Block{
			Speaker: t.Speaker,
			Start:   t.Start,
			End:     t.End,
			Text:    strings.Join(parts, " "),
		})
	}
	return blocks
}
