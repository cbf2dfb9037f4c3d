package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pridato/vidgen/internal/pipeline"
	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/ports/adapters/embeddings"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the clip catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import <clips.json>",
		Short: "Upsert clips from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _ := cmd.Flags().GetString("catalog")
			embed, _ := cmd.Flags().GetBool("embed")
			n, err := pipeline.ImportCatalog(cmd.Context(), pipeline.ImportConfig{
				CatalogDB: db,
				File:      args[0],
				Embed:     embed,
				Embedder:  catalogEmbedder(),
				Logger:    newLogger(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d clips\n", n)
			return nil
		},
	}
	importCmd.Flags().Bool("embed", true, "Compute embeddings for clips that have none")

	listCmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List catalog clips",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _ := cmd.Flags().GetString("catalog")
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			clips, err := pipeline.ListCatalog(cmd.Context(), db, category)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tSOURCE\tDUR\tQUALITY\tMOTION\tUSED\tACTIVE")
			for _, c := range clips {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.1f\t%s\t%d\t%t\n",
					c.ID, c.Category, c.SourceVideoID, c.Duration, c.Quality, c.Motion, c.UsageCount, c.IsActive)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}

func catalogEmbedder() ports.Embedder {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return embeddings.NewHashing(0)
	}
	return embeddings.NewOpenAI(key, getenvDefault("VIDGEN_EMBED_MODEL", embeddings.DefaultModel), os.Getenv("OPENAI_BASE_URL"))
}
