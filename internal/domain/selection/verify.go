package selection

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/pridato/vidgen/internal/domain/scoring"
	"github.com/pridato/vidgen/internal/types"
)

const (
	coverageSlot      = 0.1
	minCoverage       = 0.8
	minCoherence      = 0.6
	shortClipDuration = 1.0
)

// Coverage is the fraction of 0.1s slots of [0, audioDuration) overlapped
// by at least one assignment.
func Coverage(assignments []types.Assignment, audioDuration float64) float64 {
	if audioDuration <= 0 {
		return 0
	}
	slots := int(math.Ceil(audioDuration/coverageSlot - 1e-9))
	if slots <= 0 {
		return 0
	}
	covered := 0
	for k := 0; k < slots; k++ {
		slotStart := float64(k) * coverageSlot
		slotEnd := math.Min(float64(k+1)*coverageSlot, audioDuration)
		for _, a := range assignments {
			if a.Start < slotEnd && a.End > slotStart {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(slots)
}

// Coherence is the mean pair coherence over consecutive main assignments.
func Coherence(mains []types.Assignment) float64 {
	if len(mains) < 2 {
		return 1
	}
	sum := 0.0
	for i := 0; i+1 < len(mains); i++ {
		sum += scoring.PairCoherence(mains[i].Clip, mains[i+1].Clip)
	}
	return sum / float64(len(mains)-1)
}

func Engagement(mains []types.Assignment) float64 {
	if len(mains) == 0 {
		return 0
	}
	return lo.SumBy(mains, scoring.Engagement) / float64(len(mains))
}

// Verify fills the quality metrics of res and appends its warnings.
func Verify(res *types.SelectionResult) {
	mains := res.MainAssignments()
	transitions := len(res.Assignments) - len(mains)

	res.TotalDuration = lo.SumBy(mains, func(a types.Assignment) float64 { return a.Duration() })
	res.TemporalCoverage = Coverage(res.Assignments, res.AudioDuration)
	res.VisualCoherence = Coherence(mains)
	res.EstimatedEngagement = Engagement(mains)

	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	if res.TemporalCoverage < minCoverage {
		warn("temporal coverage %.0f%% is below %.0f%%", res.TemporalCoverage*100, minCoverage*100)
	}
	hasFamily := func(f types.SegmentType) bool {
		return lo.ContainsBy(mains, func(a types.Assignment) bool { return a.SegmentType.Family() == f })
	}
	if !hasFamily(types.SegmentHook) {
		warn("no hook/intro clip in the timeline")
	}
	if !hasFamily(types.SegmentCTA) {
		warn("no cta/conclusion clip in the timeline")
	}
	if res.VisualCoherence < minCoherence {
		warn("visual coherence %.2f is below %.2f", res.VisualCoherence, minCoherence)
	}
	distinctTypes := len(lo.Uniq(lo.Map(res.Segments, func(s types.TemporalSegment, _ int) types.SegmentType { return s.Type })))
	if want := distinctTypes - 1; transitions < want {
		warn("only %d transitions inserted, expected at least %d", transitions, want)
	}
	short := lo.CountBy(mains, func(a types.Assignment) bool { return a.Duration() < shortClipDuration })
	if len(mains) > 0 && short*2 > len(mains) {
		warn("%d of %d clips are shorter than %.1fs", short, len(mains), shortClipDuration)
	}
}
