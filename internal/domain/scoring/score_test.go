package scoring

import (
	"math"
	"testing"

	"github.com/pridato/vidgen/internal/types"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"mismatched", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"zero", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinal_ClampsNegativeSimilarity(t *testing.T) {
	if got := Final(-0.8, 0.5); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("Final = %v, want 0.2", got)
	}
	if got := Final(1, 1); math.Abs(got-1) > 1e-9 {
		t.Fatalf("Final = %v, want 1", got)
	}
}

func TestSegment_Table(t *testing.T) {
	seg := func(st types.SegmentType, text string, dur float64) types.TemporalSegment {
		return types.TemporalSegment{ScriptSegment: types.ScriptSegment{Type: st, Text: text}, End: dur}
	}
	best := types.Clip{
		Duration: 6, Quality: 5, Motion: types.MotionHigh, HookPotential: 10, OutroPotential: 10,
		SuccessRate: 100, EmotionTags: []string{"happy"}, ConceptTags: []string{"money", "tips"},
	}
	worst := types.Clip{
		Duration: 30, Quality: 0, Motion: types.MotionLow, EmotionTags: []string{"sad", "angry"},
	}
	tests := []struct {
		name string
		seg  types.TemporalSegment
		want float64
	}{
		{"hook best", seg(types.SegmentHook, "", 5), 0.9*0.25 + 0.20 + 0.15 + 0.10},
		{"intro aliases hook", seg(types.SegmentIntro, "", 5), 0.9*0.25 + 0.20 + 0.15 + 0.10},
		{"cta best", seg(types.SegmentCTA, "", 5), 0.30 + 0.20 + 0.15 + 0.10},
		{"content best", seg(types.SegmentContent, "money tips", 6), 0.25 + 0.15 + 0.05 + 0.5*0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Segment(best, tt.seg); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Segment = %v, want %v", got, tt.want)
			}
		})
	}
	for _, st := range []types.SegmentType{types.SegmentHook, types.SegmentContent, types.SegmentCTA} {
		got := Segment(worst, seg(st, "nothing shared", 5))
		if got < 0 || got > 1 {
			t.Fatalf("%s score out of range: %v", st, got)
		}
		if got >= Segment(best, seg(st, "money tips", 6)) {
			t.Fatalf("%s: worst clip should not outscore best", st)
		}
	}
}

func TestConceptRelevance(t *testing.T) {
	clip := types.Clip{ConceptTags: []string{"Money", "saving"}, Keywords: []string{"budget"}}
	got := ConceptRelevance("Saving money is hard", clip)
	// words: saving, money, is, hard (4); tags: money, saving, budget (3); shared 2.
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("ConceptRelevance = %v, want 0.5", got)
	}
	if ConceptRelevance("", clip) != 0 {
		t.Fatalf("expected 0 for empty text")
	}
}

func TestEmotionPositivity(t *testing.T) {
	if got := EmotionPositivity([]string{"happy", "sad", "calm", "angry"}); got != 0.5 {
		t.Fatalf("EmotionPositivity = %v, want 0.5", got)
	}
	if got := EmotionPositivity(nil); got != 1 {
		t.Fatalf("untagged clips count as neutral, got %v", got)
	}
}

func TestTransition_MotionRules(t *testing.T) {
	clip := func(m types.Motion) types.Clip { return types.Clip{Duration: 1.5, Quality: 4, Motion: m} }

	if MotionCompatibility(types.MotionLow, types.SegmentContent, types.SegmentCTA) != 0 {
		t.Fatalf("content->cta must reject low motion")
	}
	if MotionCompatibility(types.MotionMedium, types.SegmentHook, types.SegmentContent) != 1 {
		t.Fatalf("medium motion is the preferred band for hook->content")
	}
	if MotionCompatibility(types.MotionHigh, types.SegmentHook, types.SegmentContent) != 0.5 {
		t.Fatalf("high motion should be tolerated but not preferred for hook->content")
	}
	if Transition(clip(types.MotionMedium), types.SegmentHook, types.SegmentContent) <=
		Transition(clip(types.MotionHigh), types.SegmentHook, types.SegmentContent) {
		t.Fatalf("expected medium motion to rank higher between hook and content")
	}
}

func TestPairCoherence(t *testing.T) {
	a := types.Clip{Motion: types.MotionMedium, DominantColors: []string{"blue", "white", "red"}, Brightness: 50, Saturation: 50}
	if got := PairCoherence(a, a); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical clips should be fully coherent, got %v", got)
	}
	b := types.Clip{Motion: types.MotionHigh, DominantColors: []string{"red", "blue"}, Brightness: 100, Saturation: 0}
	// motion 0.5, colors: top2 {blue,white} vs {red,blue} -> 0.5, style (0.5+0.5)/2 = 0.5
	if got := PairCoherence(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("PairCoherence = %v, want 0.5", got)
	}
}

func TestEngagement_Range(t *testing.T) {
	for _, st := range []types.SegmentType{types.SegmentHook, types.SegmentContent, types.SegmentCTA} {
		a := types.Assignment{
			SegmentType: st,
			Similarity:  2,
			Clip:        types.Clip{Quality: 5, Motion: types.MotionHigh, SuccessRate: 100},
		}
		if got := Engagement(a); got < 0 || got > 1 {
			t.Fatalf("%s engagement out of range: %v", st, got)
		}
	}
}
