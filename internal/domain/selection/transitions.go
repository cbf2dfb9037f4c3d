package selection

import (
	"math"

	"github.com/pridato/vidgen/internal/domain/scoring"
	"github.com/pridato/vidgen/internal/types"
)

const transitionWindow = 0.5

// InsertTransitions reserves a short window centred on every boundary
// between adjacent windows and fills it with the best unused bridge clip.
// Boundaries without a qualifying clip are skipped.
func InsertTransitions(segs []types.TemporalSegment, pool []types.Clip, usage *Usage) []types.Assignment {
	var out []types.Assignment
	for i := 0; i+1 < len(segs); i++ {
		from, to := segs[i], segs[i+1]
		boundary := from.End
		start := math.Max(boundary-transitionWindow/2, 0)
		end := boundary + transitionWindow/2
		if last := segs[len(segs)-1].End; end > last {
			end = last
		}
		if end <= start {
			continue
		}

		best, score, ok := pickTransition(pool, from.Type, to.Type, usage)
		if !ok {
			continue
		}
		usage.Mark(best.ID, best.SourceVideoID)
		out = append(out, types.Assignment{
			Clip:         best,
			SegmentIndex: from.Index,
			SegmentType:  from.Type,
			Start:        start,
			End:          end,
			Role:         types.RoleTransition,
			SegmentScore: score,
			FinalScore:   scoring.Final(0, score),
		})
	}
	return out
}

func pickTransition(pool []types.Clip, from, to types.SegmentType, usage *Usage) (types.Clip, float64, bool) {
	floor := scoring.TransitionMotionFloor(from, to)
	var (
		best      types.Clip
		bestScore = -1.0
	)
	for _, c := range pool {
		if c.Duration > scoring.TransitionMaxDuration || c.Quality < scoring.TransitionMinQuality {
			continue
		}
		if c.Motion.Score() < floor {
			continue
		}
		if !usage.Available(c.ID, c.SourceVideoID) {
			continue
		}
		s := scoring.Transition(c, from, to)
		if s > bestScore || (s == bestScore && c.ID < best.ID) {
			best, bestScore = c, s
		}
	}
	return best, bestScore, bestScore >= 0
}
