package assembly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

var (
	// ErrAssemblyExhausted means every concatenation strategy failed.
	ErrAssemblyExhausted = errors.New("assembly fallbacks exhausted")
	// ErrSizeCeilingExceeded means no compression tier got the output under the ceiling.
	ErrSizeCeilingExceeded = errors.New("output exceeds size ceiling after compression")
)

const (
	StrategyConcatCopy     = "concat_copy"
	StrategyConcatReencode = "concat_reencode"
	StrategySingleClip     = "single_clip"
)

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

// outcome is the tagged result of one attempt.
type outcome struct {
	kind   outcomeKind
	path   string
	reason error
}

type stage struct {
	strategy string
	run      func(context.Context, ports.ConcatJob) error
}

type Assembler struct {
	tc          ports.Transcoder
	profile     types.VideoProfile
	ladder      []types.CompressionTier
	sizeCeiling int64
	logger      zerolog.Logger
}

func NewAssembler(tc ports.Transcoder, profile types.VideoProfile, ladder []types.CompressionTier, sizeCeiling int64, logger zerolog.Logger) *Assembler {
	return &Assembler{tc: tc, profile: profile, ladder: ladder, sizeCeiling: sizeCeiling, logger: logger}
}

// Muxed is a video that made it through concatenation.
type Muxed struct {
	Path     string
	Strategy string
	Size     int64
}

// Concat runs the fallback cascade: codec-copy concat, then a full re-encode,
// then the first clip looped under the whole audio track. Codec copy needs
// every input conformed, so it is skipped when any slot fell back to its
// original file.
func (a *Assembler) Concat(ctx context.Context, ws *Workspace, clips Prepared, audio, subtitles string, duration float64) (Muxed, []string, error) {
	if len(clips.Inputs) == 0 {
		return Muxed{}, nil, fmt.Errorf("%w: no clips to assemble", ErrAssemblyExhausted)
	}
	list, err := writeConcatList(ws, clips.Inputs)
	if err != nil {
		return Muxed{}, nil, err
	}

	var stages []stage
	var warnings []string
	var reasons []string
	if clips.Fallbacks == 0 {
		stages = append(stages, stage{StrategyConcatCopy, a.tc.ConcatCopy})
	} else {
		a.logger.Info().Int("fallbacks", clips.Fallbacks).Msg("unconformed inputs; skipping codec copy")
		warnings = append(warnings, fmt.Sprintf("%s skipped: %d clips not normalized", StrategyConcatCopy, clips.Fallbacks))
	}
	stages = append(stages,
		stage{StrategyConcatReencode, a.tc.ConcatReencode},
		stage{StrategySingleClip, a.tc.SingleClip},
	)
	for _, st := range stages {
		job := ports.ConcatJob{
			Inputs:    clips.Inputs,
			Durations: clips.Durations,
			ListFile:  list,
			Audio:     audio,
			Subtitles: subtitles,
			Output:    ws.Path("assembled-" + st.strategy + ".mp4"),
			Duration:  duration,
			Profile:   a.profile,
		}
		res := attempt(ctx, job.Output, func(ctx context.Context) error { return st.run(ctx, job) })
		switch res.kind {
		case outcomeOK:
			size, _ := fileSize(res.path)
			a.logger.Info().Str("strategy", st.strategy).Int64("bytes", size).Msg("assembled")
			return Muxed{Path: res.path, Strategy: st.strategy, Size: size}, warnings, nil
		case outcomeRetryable:
			a.logger.Warn().Err(res.reason).Str("strategy", st.strategy).Msg("assembly attempt failed")
			warnings = append(warnings, fmt.Sprintf("%s failed: %s", st.strategy, firstLine(res.reason)))
			reasons = append(reasons, st.strategy+": "+firstLine(res.reason))
		case outcomeFatal:
			return Muxed{}, warnings, res.reason
		}
	}
	return Muxed{}, warnings, fmt.Errorf("%w: %s", ErrAssemblyExhausted, strings.Join(reasons, "; "))
}

// FitSize walks the compression ladder until the video fits under the
// ceiling. Each tier re-encodes from the muxed original.
func (a *Assembler) FitSize(ctx context.Context, ws *Workspace, m Muxed) (Muxed, []string, error) {
	if a.sizeCeiling <= 0 || m.Size <= a.sizeCeiling {
		return m, nil, nil
	}
	a.logger.Info().Int64("bytes", m.Size).Int64("ceiling", a.sizeCeiling).Msg("output over size ceiling; compressing")

	var warnings []string
	last := m.Size
	for _, tier := range a.ladder {
		out := ws.Path("compressed-" + tier.Name + ".mp4")
		res := attempt(ctx, out, func(ctx context.Context) error {
			return a.tc.Compress(ctx, m.Path, out, tier, a.profile)
		})
		switch res.kind {
		case outcomeFatal:
			return Muxed{}, warnings, res.reason
		case outcomeRetryable:
			a.logger.Warn().Err(res.reason).Str("tier", tier.Name).Msg("compression tier failed")
			warnings = append(warnings, fmt.Sprintf("compression tier %s failed: %s", tier.Name, firstLine(res.reason)))
			continue
		}
		size, _ := fileSize(res.path)
		a.logger.Debug().Str("tier", tier.Name).Int64("bytes", size).Msg("compressed")
		last = size
		if size <= a.sizeCeiling {
			warnings = append(warnings, fmt.Sprintf("output compressed with tier %s to fit %d bytes", tier.Name, a.sizeCeiling))
			return Muxed{Path: res.path, Strategy: m.Strategy + "+" + tier.Name, Size: size}, warnings, nil
		}
	}
	return Muxed{}, warnings, fmt.Errorf("%w: %d bytes > %d after %d tiers", ErrSizeCeilingExceeded, last, a.sizeCeiling, len(a.ladder))
}

// attempt runs one external step and tags its result. Cancellation of the
// caller's context is fatal; every other failure, timeouts included, lets
// the next tier run.
func attempt(ctx context.Context, out string, fn func(context.Context) error) outcome {
	err := fn(ctx)
	if ctx.Err() != nil {
		return outcome{kind: outcomeFatal, reason: ctx.Err()}
	}
	if err != nil {
		return outcome{kind: outcomeRetryable, reason: err}
	}
	if size, statErr := fileSize(out); statErr != nil || size == 0 {
		return outcome{kind: outcomeRetryable, reason: errNoOutput}
	}
	return outcome{kind: outcomeOK, path: out}
}

func writeConcatList(ws *Workspace, inputs []string) (string, error) {
	var b strings.Builder
	for _, in := range inputs {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(in, "'", `'\''`))
		b.WriteString("'\n")
	}
	return ws.WriteFile("concat.txt", []byte(b.String()))
}

func fileSize(p string) (int64, error) {
	st, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func firstLine(err error) string {
	if err == nil {
		return ""
	}
	s, _, _ := strings.Cut(err.Error(), "\n")
	return s
}
