package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pridato/vidgen/internal/pipeline"
	"github.com/pridato/vidgen/internal/ports/adapters/embeddings"
)

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <script.json>",
		Short: "Map clips onto the narration timeline without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], true)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func newAssembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble <script.json>",
		Short: "Select clips and render the final video with the narration audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], false)
		},
	}
	addRunFlags(cmd)
	cmd.Flags().String("library", getenvDefault("VIDGEN_LIBRARY_DIR", "."), "Directory clip filenames are relative to")
	cmd.Flags().String("storage", os.Getenv("VIDGEN_STORAGE_DIR"), "Object storage directory (default: the run dir)")
	cmd.Flags().String("public-url", os.Getenv("VIDGEN_PUBLIC_BASE_URL"), "Public base URL for stored objects")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("audio", "", "Narration audio file")
	cmd.Flags().Float64("duration", 0, "Audio duration in seconds (probed from --audio when omitted)")
	cmd.Flags().String("category", "", "Clip category (overrides the script)")
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().Duration("timeout", time.Hour, "Overall deadline")

	// Hidden tuning flag (internal)
	cmd.Flags().Duration("cache-ttl", 10*time.Minute, "Catalog cache TTL")
	_ = cmd.Flags().MarkHidden("cache-ttl")
}

func run(cmd *cobra.Command, script string, selectOnly bool) error {
	f := cmd.Flags()
	audio, _ := f.GetString("audio")
	duration, _ := f.GetFloat64("duration")
	category, _ := f.GetString("category")
	outDir, _ := f.GetString("out")
	timeout, _ := f.GetDuration("timeout")
	cacheTTL, _ := f.GetDuration("cache-ttl")
	catalogDB, _ := f.GetString("catalog")
	tuning, _ := f.GetString("tuning")

	absScript, err := filepath.Abs(script)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := pipeline.Config{
		ScriptPath:    absScript,
		AudioPath:     audio,
		AudioDuration: duration,
		Category:      category,
		SelectOnly:    selectOnly,
		OutDir:        outDir,
		TuningPath:    tuning,
		Logger:        newLogger(cmd),
		CatalogDB:     catalogDB,
		CacheTTL:      cacheTTL,

		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIAllowedHosts: embeddings.SplitHosts(os.Getenv("OPENAI_ALLOWED_HOSTS")),
		EmbedModel:         getenvDefault("VIDGEN_EMBED_MODEL", embeddings.DefaultModel),
	}
	if !selectOnly {
		cfg.LibraryRoot, _ = f.GetString("library")
		cfg.StorageDir, _ = f.GetString("storage")
		cfg.PublicBaseURL, _ = f.GetString("public-url")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	runDir, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(runDir, "report.json"))
	return nil
}
