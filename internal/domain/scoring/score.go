package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/pridato/vidgen/internal/types"
)

const (
	SimilarityWeight = 0.6
	SegmentWeight    = 0.4
)

var reWord = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Cosine returns the cosine similarity of a and b in [-1..1].
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(dot/(math.Sqrt(na)*math.Sqrt(nb)), -1, 1)
}

// Final blends similarity and segment score. Negative cosine counts as 0.
func Final(similarity, segmentScore float64) float64 {
	return SimilarityWeight*clamp(similarity, 0, 1) + SegmentWeight*segmentScore
}

// Segment returns the type-specific heuristic score of clip for seg in [0..1].
func Segment(clip types.Clip, seg types.TemporalSegment) float64 {
	q := clip.Quality / 5
	var s float64
	switch seg.Type.Family() {
	case types.SegmentHook:
		s = clip.Motion.Score()*0.25 +
			q*0.20 +
			clip.HookPotential/10*0.15 +
			clip.SuccessRate/100*0.10
	case types.SegmentCTA:
		s = EmotionPositivity(clip.EmotionTags)*0.30 +
			durationShortness(clip.Duration)*0.20 +
			clip.OutroPotential/10*0.15 +
			q*0.10
	default:
		s = q*0.25 +
			ConceptRelevance(seg.Text, clip)*0.15 +
			durationMatch(clip.Duration, seg.Duration())*0.05 +
			motionBalance(clip.Motion)*0.15
	}
	return clamp(s, 0, 1)
}

// ConceptRelevance is |segment words ∩ clip tags| / max(|words|, |tags|).
func ConceptRelevance(text string, clip types.Clip) float64 {
	words := wordSet(text)
	tags := make(map[string]struct{})
	for _, list := range [][]string{clip.ConceptTags, clip.Keywords} {
		for _, t := range list {
			if v := strings.ToLower(strings.TrimSpace(t)); v != "" {
				tags[v] = struct{}{}
			}
		}
	}
	if len(words) == 0 || len(tags) == 0 {
		return 0
	}
	shared := 0
	for w := range words {
		if _, ok := tags[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(words), len(tags)))
}

func wordSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range reWord.FindAllString(strings.ToLower(text), -1) {
		out[w] = struct{}{}
	}
	return out
}

func durationMatch(a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	if hi <= 0 {
		return 0
	}
	return lo / hi
}

// Clips up to 10s get the full bonus; the bonus fades out by 20s.
func durationShortness(d float64) float64 {
	if d <= 10 {
		return 1
	}
	return clamp(1-(d-10)/10, 0, 1)
}

// Moderate motion reads best under narration; both extremes are penalised.
func motionBalance(m types.Motion) float64 {
	if m.Level() == 2 {
		return 1
	}
	return 0.5
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
