package fusion

import "testing"

func TestMaxOverlapAssign_TieGoesToFirstTurn(t *testing.T) {
	turns := []Turn{
		{Speaker: "A", Start: 0, End: 3},
		{Speaker: "B", Start: 2.5, End: 6},
	}
	spans := []Span{{Text: "tie", Start: 2.0, End: 3.5}}

	out := MaxOverlapAssign(turns, spans)

	if len(out) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(out))
	}
	// Both turns overlap by exactly 1.0; the first in input order wins.
	if !out[0].Matched || out[0].Speaker != "A" {
		t.Errorf("expected tie assigned to A, got matched=%v speaker=%q", out[0].Matched, out[0].Speaker)
	}
}

func TestMaxOverlapAssign_NoOverlap(t *testing.T) {
	turns := []Turn{{Speaker: "A", Start: 0, End: 1}}
	spans := []Span{{Text: "late", Start: 5, End: 6}}

	out := MaxOverlapAssign(turns, spans)

	if out[0].Matched {
		t.Errorf("expected unassigned span, got speaker %q", out[0].Speaker)
	}
}

func TestMaxOverlapAssign_PicksLargestOverlap(t *testing.T) {
	turns := []Turn{
		{Speaker: "A", Start: 0, End: 2},
		{Speaker: "B", Start: 2, End: 10},
	}
	spans := []Span{{Text: "mostly b", Start: 1.5, End: 5}}

	out := MaxOverlapAssign(turns, spans)

	if out[0].Speaker != "B" {
		t.Errorf("expected B (overlap 3.0 vs 0.5), got %q", out[0].Speaker)
	}
}

func TestMaxOverlapAssign_EmptyInputs(t *testing.T) {
	if out := MaxOverlapAssign(nil, []Span{{Text: "x", Start: 0, End: 1}}); out[0].Matched {
		t.Error("no turns: expected unassigned span")
	}
	if out := MaxOverlapAssign([]Turn{{Speaker: "A", Start: 0, End: 1}}, nil); len(out) != 0 {
		t.Errorf("no spans: expected empty result, got %d", len(out))
	}
}

func TestMaxOverlapAssign_ZeroLengthTurn(t *testing.T) {
	turns := []Turn{{Speaker: "A", Start: 1, End: 1}}
	spans := []Span{{Text: "x", Start: 0, End: 2}}

	out := MaxOverlapAssign(turns, spans)

	if out[0].Matched {
		t.Error("zero-length turn must contribute zero overlap")
	}
}

func TestMaxOverlapAssign_DoesNotMutateInput(t *testing.T) {
	spans := []Span{{Text: "x", Start: 0, End: 1}}
	MaxOverlapAssign([]Turn{{Speaker: "A", Start: 0, End: 1}}, spans)

	if spans[0].Text != "x" || spans[0].Start != 0 || spans[0].End != 1 {
		t.Error("input spans were mutated")
	}
}

func TestFuse_JoinsOverlappingSpans(t *testing.T) {
	turns := []Turn{{Speaker: "SPK0", Start: 0, End: 3}}
	spans := []Span{
		{Text: "hello", Start: 0, End: 1},
		{Text: "world", Start: 2, End: 4},
	}

	blocks := Fuse(turns, spans)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", blocks[0].Text)
	}
	if blocks[0].Speaker != "SPK0" || blocks[0].Start != 0 || blocks[0].End != 3 {
		t.Errorf("block metadata wrong: %+v", blocks[0])
	}
}

func TestFuse_SpanStraddlingBoundaryContributesTwice(t *testing.T) {
	turns := []Turn{
		{Speaker: "A", Start: 0, End: 2},
		{Speaker: "B", Start: 2, End: 4},
	}
	spans := []Span{{Text: "straddle", Start: 1.5, End: 2.5}}

	blocks := Fuse(turns, spans)

	if blocks[0].Text != "straddle" {
		t.Errorf("turn A: expected %q, got %q", "straddle", blocks[0].Text)
	}
	if blocks[1].Text != "straddle" {
		t.Errorf("turn B: expected %q, got %q", "straddle", blocks[1].Text)
	}
}

func TestFuse_EmptyAndWhitespaceSpansSkipped(t *testing.T) {
	turns := []Turn{{Speaker: "A", Start: 0, End: 10}}
	spans := []Span{
		{Text: "  hello  ", Start: 0, End: 1},
		{Text: "   ", Start: 1, End: 2},
		{Text: "", Start: 2, End: 3},
		{Text: "world", Start: 3, End: 4},
	}

	blocks := Fuse(turns, spans)

	if blocks[0].Text != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", blocks[0].Text)
	}
}

func TestFuse_TurnWithoutSpansYieldsEmptyText(t *testing.T) {
	turns := []Turn{
		{Speaker: "A", Start: 0, End: 1},
		{Speaker: "B", Start: 50, End: 60},
	}
	spans := []Span{{Text: "early", Start: 0, End: 1}}

	blocks := Fuse(turns, spans)

	if len(blocks) != 2 {
		t.Fatalf("expected one block per turn, got %d", len(blocks))
	}
	if blocks[1].Text != "" {
		t.Errorf("expected empty text for silent turn, got %q", blocks[1].Text)
	}
}

func TestFuse_PreservesTurnOrder(t *testing.T) {
	// Turns arrive out of chronological order and must not be re-sorted.
	turns := []Turn{
		{Speaker: "B", Start: 5, End: 10},
		{Speaker: "A", Start: 0, End: 5},
	}

	blocks := Fuse(turns, nil)

	if blocks[0].Speaker != "B" || blocks[1].Speaker != "A" {
		t.Errorf("turn order changed: %+v", blocks)
	}
}
