package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pridato/vidgen/internal/assembly"
	"github.com/pridato/vidgen/internal/domain/selection"
	"github.com/pridato/vidgen/internal/domain/timeline"
	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

type Deps struct {
	Catalog    ports.Catalog
	Usage      ports.UsageRecorder // optional
	Embedder   ports.Embedder      // optional; nil disables similarity
	Transcoder ports.Transcoder
	Fetcher    ports.ClipFetcher
	Storage    ports.Storage // optional; nil keeps the video in memory only
	Logger     zerolog.Logger
}

type Options struct {
	Assembly assembly.Config
	Density  timeline.DensityTable
}

type Usecase struct {
	d         Deps
	selector  *selection.Selector
	assembler *assembly.Orchestrator
	density   timeline.DensityTable
}

func New(d Deps, o Options) Usecase {
	u := Usecase{d: d, selector: selection.New(d.Embedder, d.Logger), density: o.Density}
	if d.Transcoder != nil && d.Fetcher != nil {
		u.assembler = assembly.NewOrchestrator(d.Transcoder, d.Fetcher, o.Assembly, d.Logger)
	}
	return u
}

type Input struct {
	Segments      []types.ScriptSegment
	AudioDuration float64
	Audio         []byte
	AudioExt      string
	Category      string
}

type Result struct {
	Selection types.SelectionResult
	Assembly  types.AssemblyResult
}

// Select loads the category's clips and builds the timeline without
// touching any media.
func (u Usecase) Select(ctx context.Context, in Input) (types.SelectionResult, error) {
	category := strings.TrimSpace(in.Category)
	pool, err := u.d.Catalog.ActiveClips(ctx, category)
	if err != nil {
		return types.SelectionResult{}, fmt.Errorf("load catalog %q: %w", category, err)
	}
	res, err := u.selector.Select(ctx, selection.Input{
		Segments:      in.Segments,
		AudioDuration: in.AudioDuration,
		Pool:          pool,
		Density:       u.density,
	})
	if err != nil {
		return types.SelectionResult{}, fmt.Errorf("category %q: %w", category, err)
	}
	return res, nil
}

// SelectAndAssemble runs selection, renders the video, uploads the outputs
// and records clip usage. Catalog emptiness fails before any media work.
func (u Usecase) SelectAndAssemble(ctx context.Context, in Input) (Result, error) {
	if u.assembler == nil {
		return Result{}, errors.New("assembly is not configured")
	}
	sel, err := u.Select(ctx, in)
	if err != nil {
		return Result{}, err
	}

	out, err := u.assembler.Assemble(ctx, assembly.Input{Selection: sel, Audio: in.Audio, AudioExt: in.AudioExt})
	if err != nil {
		return Result{Selection: sel}, fmt.Errorf("assemble: %w", err)
	}

	res := types.AssemblyResult{
		VideoBytes:    out.Video,
		FinalDuration: out.FinalDuration,
		FileSize:      out.FileSize,
		Strategy:      out.Strategy,
		Warnings:      append(append([]string(nil), sel.Warnings...), out.Warnings...),
	}

	if u.d.Storage != nil {
		key := uuid.NewString()
		url, err := u.d.Storage.Put(ctx, "videos/"+key+".mp4", out.Video, "video/mp4")
		if err != nil {
			return Result{Selection: sel}, fmt.Errorf("upload video: %w", err)
		}
		res.VideoURL = url
		if len(out.Thumbnail) > 0 {
			turl, err := u.d.Storage.Put(ctx, "thumbnails/"+key+".jpg", out.Thumbnail, "image/jpeg")
			if err != nil {
				u.d.Logger.Warn().Err(err).Msg("thumbnail upload failed")
				res.Warnings = append(res.Warnings, "thumbnail upload failed")
			} else {
				res.ThumbnailURL = turl
			}
		}
	}

	if u.d.Usage != nil {
		ids := make([]string, 0, len(sel.Assignments))
		for _, a := range sel.Assignments {
			ids = append(ids, a.Clip.ID)
		}
		if err := u.d.Usage.RecordUsage(ctx, ids); err != nil {
			u.d.Logger.Warn().Err(err).Msg("record clip usage failed")
			res.Warnings = append(res.Warnings, "clip usage could not be recorded")
		}
	}

	return Result{Selection: sel, Assembly: res}, nil
}
