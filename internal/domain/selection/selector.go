package selection

import (
	"sort"

	"github.com/samber/lo"

	"github.com/pridato/vidgen/internal/domain/scoring"
	"github.com/pridato/vidgen/internal/types"
)

const (
	maxDurationFactor  = 2.5
	usableFactor       = 1.5
	minUsableDuration  = 0.5
	qualityFloor       = 3.0
	contentQualityMin  = 2.5
	hookMotionMin      = 0.6
	ctaOutroMin        = 0.3
	rankedCandidateCap = 15
)

type candidate struct {
	clip       types.Clip
	similarity float64
	segScore   float64
	final      float64
}

// SelectSegment picks up to seg.ClipsNeeded main clips for one window.
// embedding is the window's text embedding (nil scores every clip at 0
// similarity). usage is mutated for every accepted clip.
func SelectSegment(seg types.TemporalSegment, embedding []float64, pool []types.Clip, usage *Usage) []types.Assignment {
	ranked := rankCandidates(seg, embedding, pool)
	if len(ranked) == 0 {
		return nil
	}

	var out []types.Assignment
	cursor := seg.Start
	remaining := seg.Duration()
	for _, c := range ranked {
		if len(out) >= seg.ClipsNeeded || remaining <= 0 {
			break
		}
		if !usage.Available(c.clip.ID, c.clip.SourceVideoID) {
			continue
		}
		usable := min(c.clip.Duration, remaining, usableFactor*seg.ClipDurationTarget)
		if usable < minUsableDuration {
			continue
		}
		end := cursor + usable
		if remaining-usable <= 1e-9 {
			end = seg.End
		}
		out = append(out, types.Assignment{
			Clip:         c.clip,
			SegmentIndex: seg.Index,
			SegmentType:  seg.Type,
			Start:        cursor,
			End:          end,
			Role:         types.RoleMain,
			Similarity:   c.similarity,
			SegmentScore: c.segScore,
			FinalScore:   c.final,
		})
		usage.Mark(c.clip.ID, c.clip.SourceVideoID)
		remaining -= end - cursor
		cursor = end
	}
	return out
}

func rankCandidates(seg types.TemporalSegment, embedding []float64, pool []types.Clip) []candidate {
	eligible := lo.Filter(pool, func(c types.Clip, _ int) bool {
		if c.Duration > maxDurationFactor*seg.ClipDurationTarget {
			return false
		}
		if c.Quality < qualityFloor {
			return false
		}
		return passesTypeFilter(c, seg.Type)
	})

	cands := make([]candidate, 0, len(eligible))
	for _, c := range eligible {
		sim := scoring.Cosine(embedding, c.Embedding)
		ss := scoring.Segment(c, seg)
		cands = append(cands, candidate{clip: c, similarity: sim, segScore: ss, final: scoring.Final(sim, ss)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].final != cands[j].final {
			return cands[i].final > cands[j].final
		}
		return cands[i].clip.ID < cands[j].clip.ID
	})
	if len(cands) > rankedCandidateCap {
		cands = cands[:rankedCandidateCap]
	}
	return cands
}

func passesTypeFilter(c types.Clip, st types.SegmentType) bool {
	switch st.Family() {
	case types.SegmentHook:
		return c.Motion.Score() >= hookMotionMin && c.Quality >= qualityFloor
	case types.SegmentCTA:
		return c.OutroPotential/10 >= ctaOutroMin && c.Quality >= qualityFloor
	default:
		return c.Quality >= contentQualityMin
	}
}
