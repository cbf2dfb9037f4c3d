package selection

import (
	"math"
	"testing"

	"github.com/pridato/vidgen/internal/types"
)

func span(id string, st types.SegmentType, start, end float64) types.Assignment {
	return types.Assignment{
		Clip:        types.Clip{ID: id, Motion: types.MotionMedium, Quality: 4},
		SegmentType: st,
		Start:       start,
		End:         end,
		Role:        types.RoleMain,
	}
}

func TestCoverage_MonotoneAndBounded(t *testing.T) {
	audio := 10.0
	var as []types.Assignment
	prev := Coverage(as, audio)
	if prev != 0 {
		t.Fatalf("expected empty coverage 0, got %v", prev)
	}
	for _, a := range []types.Assignment{
		span("a", types.SegmentHook, 0, 2),
		span("b", types.SegmentContent, 1, 4),
		span("c", types.SegmentContent, 6, 7.5),
		span("d", types.SegmentCTA, 7.5, 12),
		span("e", types.SegmentContent, 0, 10),
	} {
		as = append(as, a)
		got := Coverage(as, audio)
		if got < prev {
			t.Fatalf("coverage decreased from %v to %v", prev, got)
		}
		if got < 0 || got > 1 {
			t.Fatalf("coverage out of range: %v", got)
		}
		prev = got
	}
	if math.Abs(prev-1) > 1e-9 {
		t.Fatalf("expected full coverage, got %v", prev)
	}
}

func TestCoverage_PartialSlots(t *testing.T) {
	got := Coverage([]types.Assignment{span("a", types.SegmentHook, 0, 5)}, 10)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Coverage = %v, want 0.5", got)
	}
}

func TestVerify_Warnings(t *testing.T) {
	res := types.SelectionResult{
		AudioDuration: 10,
		Segments: []types.TemporalSegment{
			{ScriptSegment: types.ScriptSegment{Type: types.SegmentHook}, End: 3},
			{ScriptSegment: types.ScriptSegment{Type: types.SegmentContent}, Start: 3, End: 10},
		},
		Assignments: []types.Assignment{
			span("a", types.SegmentContent, 3, 3.5),
			span("b", types.SegmentContent, 3.5, 4.2),
			span("c", types.SegmentContent, 4.2, 6),
		},
	}
	Verify(&res)

	for _, want := range []string{
		"temporal coverage",
		"no hook/intro clip",
		"no cta/conclusion clip",
		"only 0 transitions inserted, expected at least 1",
		"2 of 3 clips are shorter than 1.0s",
	} {
		if !hasWarning(res.Warnings, want) {
			t.Fatalf("missing warning %q in %v", want, res.Warnings)
		}
	}
	if hasWarning(res.Warnings, "visual coherence") {
		t.Fatalf("identical-looking clips should not trigger a coherence warning: %v", res.Warnings)
	}
	if math.Abs(res.TotalDuration-3) > 1e-9 {
		t.Fatalf("TotalDuration = %v, want 3", res.TotalDuration)
	}
}

func TestVerify_CleanTimeline(t *testing.T) {
	res := types.SelectionResult{
		AudioDuration: 6,
		Segments: []types.TemporalSegment{
			{ScriptSegment: types.ScriptSegment{Type: types.SegmentHook}, End: 3},
			{ScriptSegment: types.ScriptSegment{Type: types.SegmentCTA}, Start: 3, End: 6},
		},
		Assignments: []types.Assignment{
			span("a", types.SegmentHook, 0, 3),
			{Clip: types.Clip{ID: "t"}, Start: 2.75, End: 3.25, Role: types.RoleTransition},
			span("b", types.SegmentCTA, 3, 6),
		},
	}
	Verify(&res)
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", res.Warnings)
	}
	if res.VisualCoherence < 0.6 || res.EstimatedEngagement <= 0 {
		t.Fatalf("unexpected metrics: coherence=%v engagement=%v", res.VisualCoherence, res.EstimatedEngagement)
	}
}

func TestCoherence_SingleClip(t *testing.T) {
	if got := Coherence([]types.Assignment{span("a", types.SegmentHook, 0, 1)}); got != 1 {
		t.Fatalf("expected 1 for fewer than 2 clips, got %v", got)
	}
}

func TestInsertTransitions(t *testing.T) {
	segs := []types.TemporalSegment{
		segment(0, types.SegmentHook, 0, 5, 1),
		segment(1, types.SegmentContent, 5, 20, 3),
		segment(2, types.SegmentCTA, 20, 25, 1),
	}
	bridge := func(id string, m types.Motion, d float64) types.Clip {
		return types.Clip{ID: id, SourceVideoID: id, Duration: d, Quality: 4, Motion: m}
	}
	pool := []types.Clip{
		bridge("calm", types.MotionLow, 1),
		bridge("mid", types.MotionMedium, 1),
		bridge("fast", types.MotionHigh, 1),
		bridge("too-long", types.MotionMedium, 4),
	}
	usage := NewUsage()
	got := InsertTransitions(segs, pool, usage)
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(got))
	}
	if got[0].Clip.ID != "mid" {
		t.Fatalf("hook->content should prefer medium motion, got %s", got[0].Clip.ID)
	}
	if got[1].Clip.ID != "fast" {
		t.Fatalf("content->cta needs high motion once medium is used, got %s", got[1].Clip.ID)
	}
	if got[0].Start != 4.75 || got[0].End != 5.25 || got[0].Role != types.RoleTransition {
		t.Fatalf("unexpected transition window: %+v", got[0])
	}
	if !usage.ClipUsed("mid") || !usage.ClipUsed("fast") {
		t.Fatalf("transition clips must be marked used")
	}

	if more := InsertTransitions(segs, pool, usage); len(more) != 1 || more[0].Clip.ID != "calm" {
		t.Fatalf("only the calm clip is left and it only fits hook->content, got %+v", more)
	}
}
