package timeline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pridato/vidgen/internal/types"
)

// Density is the clips-per-second rate for a segment family, bounded to [Min, Max].
type Density struct {
	Rate float64 `yaml:"rate"`
	Min  int     `yaml:"min"`
	Max  int     `yaml:"max"`
}

type DensityTable map[types.SegmentType]Density

func DefaultDensity() DensityTable {
	return DensityTable{
		types.SegmentHook:    {Rate: 0.15, Min: 1, Max: 2},
		types.SegmentContent: {Rate: 0.20, Min: 1, Max: 6},
		types.SegmentCTA:     {Rate: 0.15, Min: 1, Max: 2},
	}
}

func (t DensityTable) lookup(st types.SegmentType) Density {
	if d, ok := t[st.Family()]; ok {
		return d
	}
	return DefaultDensity()[st.Family()]
}

// ClipsNeeded derives how many clips a window of the given length should hold.
func (t DensityTable) ClipsNeeded(st types.SegmentType, duration float64) int {
	d := t.lookup(st)
	n := int(math.Round(duration * d.Rate))
	if n < d.Min {
		n = d.Min
	}
	if d.Max > 0 && n > d.Max {
		n = d.Max
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Map partitions [0, audioDuration) into windows proportional to the
// segments' duration weights. The last window always ends at audioDuration.
func Map(segs []types.ScriptSegment, audioDuration float64, density DensityTable) ([]types.TemporalSegment, error) {
	if audioDuration <= 0 || math.IsNaN(audioDuration) || math.IsInf(audioDuration, 0) {
		return nil, fmt.Errorf("audio duration must be > 0, got %v", audioDuration)
	}
	if density == nil {
		density = DefaultDensity()
	}

	weightSum := 0.0
	for i, s := range segs {
		if s.DurationWeight < 0 || math.IsNaN(s.DurationWeight) {
			return nil, fmt.Errorf("segment %d: duration weight must be >= 0, got %v", i, s.DurationWeight)
		}
		weightSum += s.DurationWeight
	}

	if weightSum == 0 {
		return []types.TemporalSegment{catchAll(segs, audioDuration, density)}, nil
	}

	out := make([]types.TemporalSegment, 0, len(segs))
	cursor := 0.0
	for i, s := range segs {
		d := s.DurationWeight / weightSum * audioDuration
		end := cursor + d
		if i == len(segs)-1 {
			end = audioDuration
		}
		out = append(out, window(s, i, cursor, end, density))
		cursor = end
	}
	return out, nil
}

func catchAll(segs []types.ScriptSegment, audioDuration float64, density DensityTable) types.TemporalSegment {
	var parts []string
	emotion := ""
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
		if emotion == "" {
			emotion = s.Emotion
		}
	}
	s := types.ScriptSegment{
		Text:           strings.Join(parts, " "),
		Type:           types.SegmentContent,
		DurationWeight: 1,
		Emotion:        emotion,
	}
	return window(s, 0, 0, audioDuration, density)
}

func window(s types.ScriptSegment, idx int, start, end float64, density DensityTable) types.TemporalSegment {
	d := end - start
	n := density.ClipsNeeded(s.Type, d)
	return types.TemporalSegment{
		ScriptSegment:      s,
		Index:              idx,
		Start:              start,
		End:                end,
		ClipsNeeded:        n,
		ClipDurationTarget: d / float64(n),
	}
}

var ErrGap = errors.New("timeline has a gap or overlap")

// CheckTiling reports whether the windows exactly tile [0, audioDuration).
func CheckTiling(segs []types.TemporalSegment, audioDuration float64) error {
	if len(segs) == 0 {
		return fmt.Errorf("%w: no segments", ErrGap)
	}
	if segs[0].Start != 0 {
		return fmt.Errorf("%w: first segment starts at %v", ErrGap, segs[0].Start)
	}
	for i := 0; i+1 < len(segs); i++ {
		if segs[i].End != segs[i+1].Start {
			return fmt.Errorf("%w: segment %d ends at %v, next starts at %v", ErrGap, i, segs[i].End, segs[i+1].Start)
		}
	}
	if last := segs[len(segs)-1]; last.End != audioDuration {
		return fmt.Errorf("%w: last segment ends at %v, audio is %v", ErrGap, last.End, audioDuration)
	}
	return nil
}
