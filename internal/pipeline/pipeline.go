package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/pridato/vidgen/internal/assembly"
	"github.com/pridato/vidgen/internal/config"
	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/ports/adapters/cache"
	"github.com/pridato/vidgen/internal/ports/adapters/embeddings"
	"github.com/pridato/vidgen/internal/ports/adapters/ffmpeg"
	"github.com/pridato/vidgen/internal/ports/adapters/library"
	"github.com/pridato/vidgen/internal/ports/adapters/localstore"
	"github.com/pridato/vidgen/internal/ports/adapters/sqlite"
	"github.com/pridato/vidgen/internal/types"
	"github.com/pridato/vidgen/internal/usecase"
)

type Config struct {
	ScriptPath    string
	AudioPath     string
	AudioDuration float64 // seconds; probed from AudioPath when zero
	Category      string
	// SelectOnly stops after clip selection and writes no media.
	SelectOnly bool

	OutDir     string
	TuningPath string
	Logger     zerolog.Logger

	CatalogDB   string
	LibraryRoot string
	CacheTTL    time.Duration

	// StorageDir receives uploaded objects; empty stores them in the run dir.
	StorageDir    string
	PublicBaseURL string

	FFmpegPath  string
	FFprobePath string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIAllowedHosts []string
	EmbedModel         string
}

func (c Config) Validate() error {
	if c.ScriptPath == "" {
		return errors.New("script is empty")
	}
	if _, err := os.Stat(c.ScriptPath); err != nil {
		return fmt.Errorf("stat script: %w", err)
	}
	if c.CatalogDB == "" {
		return errors.New("catalog db path is required")
	}
	if c.AudioDuration < 0 {
		return errors.New("audio duration must be >= 0")
	}
	if !c.SelectOnly {
		if c.AudioPath == "" {
			return errors.New("audio is required")
		}
		if _, err := os.Stat(c.AudioPath); err != nil {
			return fmt.Errorf("stat audio: %w", err)
		}
		if err := lookTool(c.FFprobePath, "ffprobe"); err != nil {
			return err
		}
		if err := lookTool(c.FFmpegPath, "ffmpeg"); err != nil {
			return err
		}
	}
	if c.OpenAIAPIKey != "" {
		return embeddings.ValidateBaseURL(c.OpenAIBaseURL, c.OpenAIAllowedHosts)
	}
	return nil
}

func lookTool(path, name string) error {
	if path == "" {
		path = name
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("%s not found (%s): %w", name, path, err)
	}
	return nil
}

// Report is written next to the outputs of every run.
type Report struct {
	Script    string                `json:"script"`
	Category  string                `json:"category"`
	Selection types.SelectionResult `json:"selection"`
	Assembly  *types.AssemblyResult `json:"assembly,omitempty"`
}

// Run executes one request end to end and returns the run directory.
func Run(ctx context.Context, cfg Config) (string, error) {
	log := cfg.Logger
	tuning, err := config.Load(cfg.TuningPath)
	if err != nil {
		return "", err
	}
	script, err := LoadScript(cfg.ScriptPath)
	if err != nil {
		return "", err
	}
	category := firstNonEmpty(cfg.Category, script.Category)
	if category == "" {
		return "", errors.New("category is required (flag or script)")
	}

	transcoder := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, ffmpeg.Timeouts{
		Normalize: tuning.Timeouts.Normalize,
		Concat:    tuning.Timeouts.Concat,
		Compress:  tuning.Timeouts.Compress,
		Frame:     tuning.Timeouts.Thumbnail,
		Probe:     tuning.Timeouts.Probe,
	})

	duration := firstPositive(cfg.AudioDuration, script.AudioDuration)
	if duration == 0 {
		if cfg.AudioPath == "" {
			return "", errors.New("audio duration unknown: pass a duration or an audio file")
		}
		d, err := transcoder.ProbeDuration(ctx, cfg.AudioPath)
		if err != nil {
			return "", fmt.Errorf("probe audio duration: %w", err)
		}
		duration = d.Seconds()
		log.Info().Float64("seconds", duration).Msg("audio duration probed")
	}

	catalog, err := sqlite.Open(cfg.CatalogDB)
	if err != nil {
		return "", err
	}
	defer catalog.Close()

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.ScriptPath, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	log.Info().Str("dir", runOutDir).Msg("output run dir")

	storageDir := cfg.StorageDir
	if storageDir == "" {
		storageDir = runOutDir
	}

	uc := usecase.New(usecase.Deps{
		Catalog:    cache.New(catalog, cfg.CacheTTL),
		Usage:      catalog,
		Embedder:   newEmbedder(cfg, log),
		Transcoder: transcoder,
		Fetcher:    library.New(cfg.LibraryRoot),
		Storage:    localstore.New(storageDir, cfg.PublicBaseURL),
		Logger:     log,
	}, usecase.Options{
		Density: tuning.Density,
		Assembly: assembly.Config{
			Profile:        tuning.Video,
			Ladder:         tuning.Compression,
			SizeCeiling:    tuning.SizeCeilingBytes(),
			Workers:        tuning.Workers,
			Subtitles:      tuning.Subtitles,
			ThumbnailWidth: tuning.ThumbnailWidth,
		},
	})

	in := usecase.Input{
		Segments:      script.Segments,
		AudioDuration: duration,
		Category:      category,
	}
	report := Report{Script: cfg.ScriptPath, Category: category}

	if cfg.SelectOnly {
		sel, err := uc.Select(ctx, in)
		if err != nil {
			return runOutDir, err
		}
		report.Selection = sel
		logSelection(log, sel)
		return runOutDir, writeReport(runOutDir, report)
	}

	audio, err := os.ReadFile(cfg.AudioPath)
	if err != nil {
		return runOutDir, fmt.Errorf("read audio: %w", err)
	}
	in.Audio = audio
	in.AudioExt = filepath.Ext(cfg.AudioPath)

	res, err := uc.SelectAndAssemble(ctx, in)
	report.Selection = res.Selection
	if err != nil {
		if len(res.Selection.Assignments) > 0 {
			_ = writeReport(runOutDir, report)
		}
		return runOutDir, err
	}
	logSelection(log, res.Selection)
	report.Assembly = &res.Assembly
	log.Info().
		Str("video", res.Assembly.VideoURL).
		Str("thumbnail", res.Assembly.ThumbnailURL).
		Int64("bytes", res.Assembly.FileSize).
		Float64("duration", res.Assembly.FinalDuration).
		Str("strategy", res.Assembly.Strategy).
		Msg("video ready")
	return runOutDir, writeReport(runOutDir, report)
}

func newEmbedder(cfg Config, log zerolog.Logger) ports.Embedder {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Debug().Msg("OPENAI_API_KEY not set; using offline hashing embedder")
		return embeddings.NewHashing(0)
	}
	return embeddings.NewOpenAI(cfg.OpenAIAPIKey, cfg.EmbedModel, cfg.OpenAIBaseURL)
}

func logSelection(log zerolog.Logger, sel types.SelectionResult) {
	log.Info().
		Int("assignments", len(sel.Assignments)).
		Float64("coverage", sel.TemporalCoverage).
		Float64("coherence", sel.VisualCoherence).
		Float64("engagement", sel.EstimatedEngagement).
		Msg("selection done")
	for _, w := range sel.Warnings {
		log.Warn().Msg(w)
	}
}

func writeReport(dir string, r Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "report.json"), b, 0o644)
}

func buildRunOutDir(outRoot, scriptPath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "script"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", scriptPath, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

// ensure adapters implement ports
var (
	_ ports.Transcoder    = (*ffmpeg.Adapter)(nil)
	_ ports.Catalog       = (*cache.Catalog)(nil)
	_ ports.UsageRecorder = (*sqlite.Catalog)(nil)
	_ ports.Embedder      = (*embeddings.OpenAI)(nil)
	_ ports.Embedder      = (*embeddings.Hashing)(nil)
	_ ports.ClipFetcher   = (*library.Fetcher)(nil)
	_ ports.Storage       = (*localstore.Store)(nil)
)
