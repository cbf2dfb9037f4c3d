package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/pridato/vidgen/internal/domain/timeline"
	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

var (
	ErrCatalogEmpty    = errors.New("catalog has no active clips")
	ErrNoClipsSelected = errors.New("no segment produced any clip assignment")
)

type Input struct {
	Segments      []types.ScriptSegment
	AudioDuration float64
	Pool          []types.Clip
	Density       timeline.DensityTable
}

type Selector struct {
	embedder ports.Embedder
	logger   zerolog.Logger
}

func New(embedder ports.Embedder, logger zerolog.Logger) *Selector {
	return &Selector{
		embedder: embedder,
		logger:   logger.With().Str("component", "selection").Logger(),
	}
}

// Select maps the script onto the audio timeline and assigns clips to it.
func (s *Selector) Select(ctx context.Context, in Input) (types.SelectionResult, error) {
	pool := lo.Filter(in.Pool, func(c types.Clip, _ int) bool { return c.IsActive })
	if len(pool) == 0 {
		return types.SelectionResult{}, ErrCatalogEmpty
	}

	segs, err := timeline.Map(in.Segments, in.AudioDuration, in.Density)
	if err != nil {
		return types.SelectionResult{}, fmt.Errorf("temporal mapping: %w", err)
	}

	res := types.SelectionResult{Segments: segs, AudioDuration: in.AudioDuration}
	embeddings := s.embedSegments(ctx, segs, &res)

	usage := NewUsage()
	sources := lo.Uniq(lo.Map(pool, func(c types.Clip, _ int) string { return c.SourceVideoID }))
	if len(sources) < len(segs) {
		usage.AllowSourceReuse = true
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"catalog has %d distinct source videos for %d segments; source reuse allowed", len(sources), len(segs)))
	}

	var mains []types.Assignment
	for i, seg := range segs {
		picked := SelectSegment(seg, embeddings[i], pool, usage)
		switch {
		case len(picked) == 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("segment %d (%s) has no qualifying clips", seg.Index, seg.Type))
		case len(picked) < seg.ClipsNeeded:
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"segment %d (%s) filled %d of %d clips", seg.Index, seg.Type, len(picked), seg.ClipsNeeded))
		}
		s.logger.Debug().
			Int("segment", seg.Index).
			Str("type", string(seg.Type)).
			Float64("start", seg.Start).
			Float64("end", seg.End).
			Int("needed", seg.ClipsNeeded).
			Int("picked", len(picked)).
			Msg("segment selected")
		mains = append(mains, picked...)
	}
	if len(mains) == 0 {
		return types.SelectionResult{}, ErrNoClipsSelected
	}

	transitions := InsertTransitions(segs, pool, usage)
	res.Assignments = mergeTimeline(mains, transitions)

	Verify(&res)
	s.logger.Info().
		Int("assignments", len(res.Assignments)).
		Int("transitions", len(transitions)).
		Float64("coverage", res.TemporalCoverage).
		Float64("coherence", res.VisualCoherence).
		Float64("engagement", res.EstimatedEngagement).
		Int("warnings", len(res.Warnings)).
		Msg("selection complete")
	return res, nil
}

func (s *Selector) embedSegments(ctx context.Context, segs []types.TemporalSegment, res *types.SelectionResult) [][]float64 {
	out := make([][]float64, len(segs))
	if s.embedder == nil {
		return out
	}
	texts := lo.Map(segs, func(seg types.TemporalSegment, _ int) string { return seg.Text })
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil || len(vecs) != len(segs) {
		if err == nil {
			err = fmt.Errorf("got %d vectors for %d segments", len(vecs), len(segs))
		}
		s.logger.Warn().Err(err).Msg("embedding failed, ranking without similarity")
		res.Warnings = append(res.Warnings, "segment embedding unavailable; similarity ignored")
		return out
	}
	return vecs
}

func mergeTimeline(mains, transitions []types.Assignment) []types.Assignment {
	out := make([]types.Assignment, 0, len(mains)+len(transitions))
	out = append(out, mains...)
	out = append(out, transitions...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Role == types.RoleMain && out[j].Role != types.RoleMain
	})
	return out
}
