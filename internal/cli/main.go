package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pridato/vidgen/internal/domain/selection"
)

// Exit codes let callers tell an empty catalog (add clips) from a failed
// render (inspect the media).
const (
	exitFailure      = 1
	exitCatalogEmpty = 2
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:           "vidgen",
		Short:         "Match stock clips to a narration and assemble a vertical video",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	pf := root.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Debug logging")
	pf.String("catalog", getenvDefault("VIDGEN_CATALOG_DB", ".cache/catalog.sqlite"), "Clip catalog database")
	pf.String("tuning", "", "YAML tuning file")

	root.AddCommand(newSelectCmd(), newAssembleCmd(), newCatalogCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, selection.ErrCatalogEmpty) {
			os.Exit(exitCatalogEmpty)
		}
		os.Exit(exitFailure)
	}
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
