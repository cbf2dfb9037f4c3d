package assembly

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

// Slot is one entry of the playback plan: a local source file shown for
// Duration seconds.
type Slot struct {
	ClipID   string
	Source   string
	Duration float64
}

// Prepared is the normalizer's output in slot order. Fallbacks counts slots
// that kept their original, unconformed file.
type Prepared struct {
	Inputs    []string
	Durations []float64
	Fallbacks int
}

var errNoOutput = errors.New("process produced no output")

type Normalizer struct {
	tc      ports.Transcoder
	profile types.VideoProfile
	workers int
	logger  zerolog.Logger
}

func NewNormalizer(tc ports.Transcoder, profile types.VideoProfile, workers int, logger zerolog.Logger) *Normalizer {
	if workers <= 0 {
		workers = 1
	}
	return &Normalizer{tc: tc, profile: profile, workers: workers, logger: logger}
}

// Run normalizes every slot into ws. A slot whose normalization fails keeps
// its original file and adds a warning. Only cancellation of ctx is returned
// as an error.
func (n *Normalizer) Run(ctx context.Context, ws *Workspace, slots []Slot) (Prepared, []string, error) {
	paths := make([]string, len(slots))
	failed := make([]error, len(slots))

	var g errgroup.Group
	g.SetLimit(n.workers)
	for i, s := range slots {
		i, s := i, s
		g.Go(func() error {
			if ctx.Err() != nil {
				failed[i] = ctx.Err()
				paths[i] = s.Source
				return nil
			}
			out := ws.Path(normDir, fmt.Sprintf("%03d.mp4", i))
			err := n.tc.Normalize(ctx, s.Source, out, s.Duration, n.profile)
			if err == nil {
				if st, statErr := os.Stat(out); statErr != nil || st.Size() == 0 {
					err = errNoOutput
				}
			}
			if err != nil {
				failed[i] = err
				paths[i] = s.Source
				return nil
			}
			paths[i] = out
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Prepared{}, nil, err
	}

	prep := Prepared{Inputs: paths, Durations: make([]float64, len(slots))}
	var warnings []string
	for i, err := range failed {
		prep.Durations[i] = slots[i].Duration
		if err == nil {
			continue
		}
		prep.Fallbacks++
		n.logger.Warn().Err(err).Str("clip_id", slots[i].ClipID).Int("slot", i).Msg("normalization failed; using original file")
		warnings = append(warnings, fmt.Sprintf("clip %s: normalization failed, original file used", slots[i].ClipID))
	}
	return prep, warnings, nil
}
