package scoring

import (
	"math"
	"strings"

	"github.com/pridato/vidgen/internal/types"
)

// PairCoherence averages motion, color and style continuity between two
// consecutive clips.
func PairCoherence(a, b types.Clip) float64 {
	motion := 1 - math.Abs(float64(a.Motion.Level()-b.Motion.Level()))/2
	return clamp((motion+colorContinuity(a, b)+styleContinuity(a, b))/3, 0, 1)
}

func colorContinuity(a, b types.Clip) float64 {
	top := func(c []string) map[string]struct{} {
		out := make(map[string]struct{}, 2)
		for _, v := range c {
			if len(out) == 2 {
				break
			}
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				out[v] = struct{}{}
			}
		}
		return out
	}
	ta, tb := top(a.DominantColors), top(b.DominantColors)
	shared := 0
	for c := range ta {
		if _, ok := tb[c]; ok {
			shared++
		}
	}
	return float64(shared) / 2
}

func styleContinuity(a, b types.Clip) float64 {
	bright := 1 - math.Abs(a.Brightness-b.Brightness)/100
	sat := 1 - math.Abs(a.Saturation-b.Saturation)/100
	return clamp((bright+sat)/2, 0, 1)
}

// Engagement estimates how engaging a main assignment is, weighting the
// signals differently per segment family.
func Engagement(a types.Assignment) float64 {
	c := a.Clip
	q := c.Quality / 5
	motion := c.Motion.Score()
	success := c.SuccessRate / 100
	sim := clamp(a.Similarity, 0, 1)

	var e float64
	switch a.SegmentType.Family() {
	case types.SegmentHook:
		e = motion*0.40 + q*0.20 + success*0.20 + sim*0.20
	case types.SegmentCTA:
		e = EmotionPositivity(c.EmotionTags)*0.40 + q*0.20 + success*0.20 + sim*0.20
	default:
		e = q*0.35 + sim*0.35 + motion*0.15 + success*0.15
	}
	return clamp(e, 0, 1)
}
