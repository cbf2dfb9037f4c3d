package scoring

import "github.com/pridato/vidgen/internal/types"

const (
	TransitionMaxDuration = 3.0
	TransitionMinQuality  = 2.0
)

// TransitionMotionFloor is the minimum motion score a clip needs to bridge from -> to.
func TransitionMotionFloor(from, to types.SegmentType) float64 {
	if from.Family() == types.SegmentContent && to.Family() == types.SegmentCTA {
		return 0.6
	}
	return 0.3
}

// MotionCompatibility rates how well the clip's motion suits the boundary.
func MotionCompatibility(m types.Motion, from, to types.SegmentType) float64 {
	ms := m.Score()
	floor := TransitionMotionFloor(from, to)
	if ms < floor {
		return 0
	}
	if floor >= 0.6 {
		return ms
	}
	if ms >= 0.4 && ms <= 0.7 {
		return 1
	}
	return 0.5
}

// Transition ranks a candidate bridge clip: quality 0.3, shortness 0.3, motion 0.4.
func Transition(clip types.Clip, from, to types.SegmentType) float64 {
	short := clamp(1-clip.Duration/TransitionMaxDuration, 0, 1)
	return clamp(
		clip.Quality/5*0.3+short*0.3+MotionCompatibility(clip.Motion, from, to)*0.4,
		0, 1,
	)
}
