package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/ports/adapters/sqlite"
	"github.com/pridato/vidgen/internal/types"
)

// Script is the narration input: typed segments plus optional defaults for
// category and audio duration.
type Script struct {
	Category      string                `json:"category,omitempty"`
	AudioDuration float64               `json:"audio_duration,omitempty"`
	Segments      []types.ScriptSegment `json:"segments"`
}

// LoadScript reads a script file holding either a Script object or a bare
// segment array.
func LoadScript(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	var s Script
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(b, &s.Segments)
	} else {
		err = json.Unmarshal(b, &s)
	}
	if err != nil {
		return Script{}, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(s.Segments) == 0 {
		return Script{}, fmt.Errorf("script %s has no segments", path)
	}
	return s, nil
}

type ImportConfig struct {
	CatalogDB string
	File      string
	// Embed fills missing clip embeddings from tags and keywords.
	Embed    bool
	Embedder ports.Embedder
	Logger   zerolog.Logger
}

// importClip defaults is_active to true when the field is absent.
type importClip struct {
	types.Clip
	Active *bool `json:"is_active"`
}

// ImportCatalog upserts the clips of a JSON file into the catalog.
func ImportCatalog(ctx context.Context, cfg ImportConfig) (int, error) {
	if cfg.CatalogDB == "" {
		return 0, errors.New("catalog db path is required")
	}
	b, err := os.ReadFile(cfg.File)
	if err != nil {
		return 0, fmt.Errorf("read clips: %w", err)
	}
	var raw []importClip
	if err := json.Unmarshal(b, &raw); err != nil {
		return 0, fmt.Errorf("parse clips %s: %w", cfg.File, err)
	}
	clips := make([]types.Clip, len(raw))
	for i, r := range raw {
		clips[i] = r.Clip
		clips[i].IsActive = r.Active == nil || *r.Active
	}

	if cfg.Embed && cfg.Embedder != nil {
		if err := embedMissing(ctx, cfg.Embedder, clips); err != nil {
			return 0, err
		}
	}

	cat, err := sqlite.Open(cfg.CatalogDB)
	if err != nil {
		return 0, err
	}
	defer cat.Close()
	n, err := cat.Import(ctx, clips)
	if err != nil {
		return 0, err
	}
	cfg.Logger.Info().Int("clips", n).Str("db", cfg.CatalogDB).Msg("catalog imported")
	return n, nil
}

// ListCatalog returns the stored clips, optionally for one category.
func ListCatalog(ctx context.Context, dbPath, category string) ([]types.Clip, error) {
	cat, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer cat.Close()
	return cat.List(ctx, category)
}

func embedMissing(ctx context.Context, e ports.Embedder, clips []types.Clip) error {
	var idx []int
	var texts []string
	for i, c := range clips {
		if len(c.Embedding) > 0 {
			continue
		}
		text := clipText(c)
		if text == "" {
			continue
		}
		idx = append(idx, i)
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil
	}
	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed clips: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embed clips: got %d vectors for %d clips", len(vecs), len(texts))
	}
	for j, i := range idx {
		clips[i].Embedding = vecs[j]
	}
	return nil
}

func clipText(c types.Clip) string {
	var parts []string
	parts = append(parts, c.ConceptTags...)
	parts = append(parts, c.Keywords...)
	parts = append(parts, c.EmotionTags...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
