package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

// Catalog is the clip library stored in a single SQLite file.
type Catalog struct {
	db *sql.DB
}

var (
	_ ports.Catalog       = (*Catalog)(nil)
	_ ports.UsageRecorder = (*Catalog)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS clips (
	id              TEXT PRIMARY KEY,
	source_video_id TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL,
	filename        TEXT NOT NULL,
	duration        REAL NOT NULL,
	embedding       TEXT NOT NULL DEFAULT '[]',
	concept_tags    TEXT NOT NULL DEFAULT '[]',
	emotion_tags    TEXT NOT NULL DEFAULT '[]',
	keywords        TEXT NOT NULL DEFAULT '[]',
	dominant_colors TEXT NOT NULL DEFAULT '[]',
	brightness      REAL NOT NULL DEFAULT 0,
	saturation      REAL NOT NULL DEFAULT 0,
	quality         REAL NOT NULL DEFAULT 0,
	motion          TEXT NOT NULL DEFAULT 'medium',
	hook_potential  REAL NOT NULL DEFAULT 0,
	outro_potential REAL NOT NULL DEFAULT 0,
	usage_count     INTEGER NOT NULL DEFAULT 0,
	success_rate    REAL NOT NULL DEFAULT 0,
	is_active       INTEGER NOT NULL DEFAULT 1,
	updated_at      REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS clips_category_active ON clips(category, is_active);
`

const clipColumns = `id, source_video_id, category, filename, duration, embedding,
	concept_tags, emotion_tags, keywords, dominant_colors, brightness, saturation,
	quality, motion, hook_potential, outro_potential, usage_count, success_rate, is_active`

// Open opens or creates the catalog at path and applies the schema.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init catalog: %w", err)
		}
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Import upserts clips. Usage counters of existing rows are preserved.
func (c *Catalog) Import(ctx context.Context, clips []types.Clip) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clips (`+clipColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_video_id = excluded.source_video_id,
			category        = excluded.category,
			filename        = excluded.filename,
			duration        = excluded.duration,
			embedding       = excluded.embedding,
			concept_tags    = excluded.concept_tags,
			emotion_tags    = excluded.emotion_tags,
			keywords        = excluded.keywords,
			dominant_colors = excluded.dominant_colors,
			brightness      = excluded.brightness,
			saturation      = excluded.saturation,
			quality         = excluded.quality,
			motion          = excluded.motion,
			hook_potential  = excluded.hook_potential,
			outro_potential = excluded.outro_potential,
			success_rate    = excluded.success_rate,
			is_active       = excluded.is_active,
			updated_at      = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	now := float64(time.Now().UnixNano()) / 1e9
	for _, clip := range clips {
		if err := validateClip(clip); err != nil {
			return 0, err
		}
		enc, err := encodeLists(clip)
		if err != nil {
			return 0, fmt.Errorf("encode clip %s: %w", clip.ID, err)
		}
		motion := clip.Motion
		if motion == "" {
			motion = types.MotionMedium
		}
		if _, err := stmt.ExecContext(ctx,
			clip.ID, clip.SourceVideoID, clip.Category, clip.Filename, clip.Duration,
			enc[0], enc[1], enc[2], enc[3], enc[4],
			clip.Brightness, clip.Saturation, clip.Quality, string(motion),
			clip.HookPotential, clip.OutroPotential, clip.UsageCount, clip.SuccessRate,
			boolInt(clip.IsActive), now,
		); err != nil {
			return 0, fmt.Errorf("insert clip %s: %w", clip.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(clips), nil
}

// ActiveClips returns the active clips of a category ordered by id.
func (c *Catalog) ActiveClips(ctx context.Context, category string) ([]types.Clip, error) {
	return c.query(ctx, `SELECT `+clipColumns+` FROM clips WHERE category = ? AND is_active = 1 ORDER BY id`, category)
}

// List returns every clip, or only one category's when category is set.
func (c *Catalog) List(ctx context.Context, category string) ([]types.Clip, error) {
	if strings.TrimSpace(category) == "" {
		return c.query(ctx, `SELECT `+clipColumns+` FROM clips ORDER BY category, id`)
	}
	return c.query(ctx, `SELECT `+clipColumns+` FROM clips WHERE category = ? ORDER BY id`, category)
}

// RecordUsage bumps usage_count once per id.
func (c *Catalog) RecordUsage(ctx context.Context, clipIDs []string) error {
	if len(clipIDs) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin usage: %w", err)
	}
	defer tx.Rollback()
	seen := make(map[string]struct{}, len(clipIDs))
	for _, id := range clipIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := tx.ExecContext(ctx, `UPDATE clips SET usage_count = usage_count + 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("record usage %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit usage: %w", err)
	}
	return nil
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]types.Clip, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	var out []types.Clip
	for rows.Next() {
		var clip types.Clip
		var embedding, concepts, emotions, keywords, colors, motion string
		var active int
		if err := rows.Scan(&clip.ID, &clip.SourceVideoID, &clip.Category, &clip.Filename, &clip.Duration,
			&embedding, &concepts, &emotions, &keywords, &colors,
			&clip.Brightness, &clip.Saturation, &clip.Quality, &motion,
			&clip.HookPotential, &clip.OutroPotential, &clip.UsageCount, &clip.SuccessRate, &active,
		); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clip.Motion = types.Motion(motion)
		clip.IsActive = active != 0
		if err := decodeLists(&clip, embedding, concepts, emotions, keywords, colors); err != nil {
			return nil, fmt.Errorf("decode clip %s: %w", clip.ID, err)
		}
		out = append(out, clip)
	}
	return out, rows.Err()
}

func validateClip(c types.Clip) error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return errors.New("clip id is required")
	case strings.TrimSpace(c.Category) == "":
		return fmt.Errorf("clip %s: category is required", c.ID)
	case strings.TrimSpace(c.Filename) == "":
		return fmt.Errorf("clip %s: filename is required", c.ID)
	case c.Duration <= 0:
		return fmt.Errorf("clip %s: duration must be > 0", c.ID)
	}
	return nil
}

func encodeLists(c types.Clip) ([5]string, error) {
	var out [5]string
	for i, v := range []any{nonNilFloats(c.Embedding), nonNil(c.ConceptTags), nonNil(c.EmotionTags), nonNil(c.Keywords), nonNil(c.DominantColors)} {
		b, err := json.Marshal(v)
		if err != nil {
			return out, err
		}
		out[i] = string(b)
	}
	return out, nil
}

func decodeLists(c *types.Clip, embedding, concepts, emotions, keywords, colors string) error {
	if err := json.Unmarshal([]byte(embedding), &c.Embedding); err != nil {
		return err
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{concepts, &c.ConceptTags},
		{emotions, &c.EmotionTags},
		{keywords, &c.Keywords},
		{colors, &c.DominantColors},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return err
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFloats(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
