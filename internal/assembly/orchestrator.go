package assembly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pridato/vidgen/internal/domain/subtitles"
	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

type Config struct {
	Profile        types.VideoProfile
	Ladder         []types.CompressionTier
	SizeCeiling    int64
	Workers        int
	Subtitles      bool
	ThumbnailWidth int
	// TempDir is the parent of per-run workspaces; empty uses the system default.
	TempDir string
}

type Input struct {
	Selection types.SelectionResult
	Audio     []byte
	AudioExt  string
}

type Output struct {
	Video         []byte
	Thumbnail     []byte
	FinalDuration float64
	FileSize      int64
	Strategy      string
	Warnings      []string
}

type Orchestrator struct {
	tc         ports.Transcoder
	fetcher    ports.ClipFetcher
	cfg        Config
	normalizer *Normalizer
	assembler  *Assembler
	logger     zerolog.Logger
}

func NewOrchestrator(tc ports.Transcoder, fetcher ports.ClipFetcher, cfg Config, logger zerolog.Logger) *Orchestrator {
	logger = logger.With().Str("component", "assembly").Logger()
	return &Orchestrator{
		tc:         tc,
		fetcher:    fetcher,
		cfg:        cfg,
		normalizer: NewNormalizer(tc, cfg.Profile, cfg.Workers, logger),
		assembler:  NewAssembler(tc, cfg.Profile, cfg.Ladder, cfg.SizeCeiling, logger),
		logger:     logger,
	}
}

// Assemble turns a selection and its narration audio into one muxed video.
// The run's workspace is removed on every return path.
func (o *Orchestrator) Assemble(ctx context.Context, in Input) (Output, error) {
	if len(in.Audio) == 0 {
		return Output{}, errors.New("assemble: empty audio")
	}
	ws, err := NewWorkspace(o.cfg.TempDir)
	if err != nil {
		return Output{}, err
	}
	log := o.logger.With().Str("workspace", ws.ID).Logger()
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			log.Warn().Err(cerr).Msg("workspace cleanup failed")
		}
	}()

	ext := strings.TrimPrefix(in.AudioExt, ".")
	if ext == "" {
		ext = "mp3"
	}
	audio, err := ws.WriteFile("audio."+ext, in.Audio)
	if err != nil {
		return Output{}, err
	}

	var subs string
	if o.cfg.Subtitles && hasText(in.Selection.Segments) {
		ass := subtitles.RenderASS(in.Selection.Segments, o.cfg.Profile.Width, o.cfg.Profile.Height)
		if subs, err = ws.WriteFile("subtitles.ass", []byte(ass)); err != nil {
			return Output{}, err
		}
	}

	slots, warnings, err := o.fetch(ctx, ws, planCuts(in.Selection.Assignments, in.Selection.AudioDuration))
	if err != nil {
		return Output{}, err
	}
	if len(slots) == 0 {
		return Output{}, fmt.Errorf("%w: no clip media available", ErrAssemblyExhausted)
	}

	prepared, w, err := o.normalizer.Run(ctx, ws, slots)
	if err != nil {
		return Output{}, err
	}
	warnings = append(warnings, w...)

	muxed, w, err := o.assembler.Concat(ctx, ws, prepared, audio, subs, in.Selection.AudioDuration)
	warnings = append(warnings, w...)
	if err != nil {
		return Output{Warnings: warnings}, err
	}
	muxed, w, err = o.assembler.FitSize(ctx, ws, muxed)
	warnings = append(warnings, w...)
	if err != nil {
		return Output{Warnings: warnings}, err
	}

	final := in.Selection.AudioDuration
	if d, perr := o.tc.ProbeDuration(ctx, muxed.Path); perr != nil {
		log.Warn().Err(perr).Msg("probe final duration failed")
		warnings = append(warnings, "final duration could not be probed; using audio duration")
	} else {
		final = d.Seconds()
	}

	video, err := os.ReadFile(muxed.Path)
	if err != nil {
		return Output{Warnings: warnings}, fmt.Errorf("read assembled video: %w", err)
	}

	thumb, terr := thumbnail(ctx, o.tc, ws, muxed.Path, final, o.cfg.ThumbnailWidth)
	if terr != nil {
		log.Warn().Err(terr).Msg("thumbnail extraction failed")
		warnings = append(warnings, "thumbnail extraction failed")
		thumb = nil
	}

	log.Info().
		Str("strategy", muxed.Strategy).
		Int64("bytes", int64(len(video))).
		Float64("duration", final).
		Int("warnings", len(warnings)).
		Msg("assembly done")

	return Output{
		Video:         video,
		Thumbnail:     thumb,
		FinalDuration: final,
		FileSize:      int64(len(video)),
		Strategy:      muxed.Strategy,
		Warnings:      warnings,
	}, nil
}

// fetch resolves every cut to a local file. Clips that cannot be fetched are
// dropped with a warning and their time goes to the previous slot, or to the
// next one when nothing precedes them.
func (o *Orchestrator) fetch(ctx context.Context, ws *Workspace, cuts []cut) ([]Slot, []string, error) {
	var slots []Slot
	var warnings []string
	var carry float64
	local := map[string]string{}
	for _, c := range cuts {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		clip := c.assignment.Clip
		path, ok := local[clip.ID]
		if !ok {
			p, err := o.fetcher.Fetch(ctx, clip, ws.Path(clipsDir))
			if err != nil {
				o.logger.Warn().Err(err).Str("clip_id", clip.ID).Msg("fetch clip failed")
				warnings = append(warnings, fmt.Sprintf("clip %s: media unavailable, skipped", clip.ID))
				p = ""
			}
			local[clip.ID] = p
			path = p
		}
		if path == "" {
			if n := len(slots); n > 0 {
				slots[n-1].Duration += c.end - c.start
			} else {
				carry += c.end - c.start
			}
			continue
		}
		slots = append(slots, Slot{ClipID: clip.ID, Source: path, Duration: carry + c.end - c.start})
		carry = 0
	}
	return slots, warnings, nil
}

func hasText(segs []types.TemporalSegment) bool {
	for _, s := range segs {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}
