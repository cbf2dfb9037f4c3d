package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pridato/vidgen/internal/ports/adapters/embeddings"
	"github.com/pridato/vidgen/internal/types"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Script.json", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-script-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-script-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadScript_ObjectAndArray(t *testing.T) {
	dir := t.TempDir()
	segs := []types.ScriptSegment{{Text: "hi", Type: types.SegmentHook, DurationWeight: 1}}

	obj := filepath.Join(dir, "obj.json")
	writeJSON(t, obj, Script{Category: "finance", AudioDuration: 12, Segments: segs})
	s, err := LoadScript(obj)
	if err != nil || s.Category != "finance" || s.AudioDuration != 12 || len(s.Segments) != 1 {
		t.Fatalf("object script: %+v %v", s, err)
	}

	arr := filepath.Join(dir, "arr.json")
	writeJSON(t, arr, segs)
	s, err = LoadScript(arr)
	if err != nil || len(s.Segments) != 1 || s.Segments[0].Type != types.SegmentHook {
		t.Fatalf("array script: %+v %v", s, err)
	}

	empty := filepath.Join(dir, "empty.json")
	writeJSON(t, empty, Script{})
	if _, err := LoadScript(empty); err == nil {
		t.Fatalf("expected error for script without segments")
	}
}

func testCatalogFile(t *testing.T, dir string) string {
	t.Helper()
	var clips []map[string]any
	for i := 0; i < 12; i++ {
		clips = append(clips, map[string]any{
			"id":              fmt.Sprintf("clip-%02d", i),
			"source_video_id": fmt.Sprintf("src-%02d", i),
			"category":        "finance",
			"filename":        fmt.Sprintf("clip-%02d.mp4", i),
			"duration":        4.0,
			"concept_tags":    []string{"money", "saving"},
			"keywords":        []string{"budget"},
			"quality":         4.5,
			"motion":          "high",
			"hook_potential":  8,
			"outro_potential": 8,
		})
	}
	clips = append(clips, map[string]any{
		"id": "retired", "category": "finance", "filename": "r.mp4", "duration": 3.0, "is_active": false,
	})
	p := filepath.Join(dir, "clips.json")
	writeJSON(t, p, clips)
	return p
}

func TestImportAndListCatalog(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.sqlite")
	n, err := ImportCatalog(context.Background(), ImportConfig{
		CatalogDB: db,
		File:      testCatalogFile(t, dir),
		Embed:     true,
		Embedder:  embeddings.NewHashing(0),
		Logger:    zerolog.Nop(),
	})
	if err != nil || n != 13 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	clips, err := ListCatalog(context.Background(), db, "finance")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	active := 0
	for _, c := range clips {
		if c.IsActive {
			active++
			if len(c.Embedding) != embeddings.DefaultHashingDim {
				t.Fatalf("clip %s missing embedding", c.ID)
			}
		}
		if c.ID == "retired" && c.IsActive {
			t.Fatalf("explicit is_active=false must be kept")
		}
	}
	if active != 12 {
		t.Fatalf("expected 12 active clips (default true), got %d", active)
	}
}

func TestRun_SelectOnlyWritesReport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.sqlite")
	if _, err := ImportCatalog(context.Background(), ImportConfig{
		CatalogDB: db, File: testCatalogFile(t, dir), Embed: true, Embedder: embeddings.NewHashing(0), Logger: zerolog.Nop(),
	}); err != nil {
		t.Fatalf("import: %v", err)
	}
	script := filepath.Join(dir, "script.json")
	writeJSON(t, script, Script{
		Category:      "finance",
		AudioDuration: 42,
		Segments: []types.ScriptSegment{
			{Text: "stop wasting money", Type: types.SegmentHook, DurationWeight: 8},
			{Text: "three budget tips for saving", Type: types.SegmentContent, DurationWeight: 28},
			{Text: "follow for more", Type: types.SegmentCTA, DurationWeight: 6},
		},
	})

	cfg := Config{
		ScriptPath: script,
		SelectOnly: true,
		CatalogDB:  db,
		OutDir:     filepath.Join(dir, "out"),
		Logger:     zerolog.Nop(),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	runDir, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(runDir, "report.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep Report
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if rep.Category != "finance" || rep.Assembly != nil {
		t.Fatalf("unexpected report header: %+v", rep)
	}
	if len(rep.Selection.Segments) != 3 || rep.Selection.Segments[2].End != 42 {
		t.Fatalf("unexpected segments: %+v", rep.Selection.Segments)
	}
	if len(rep.Selection.Assignments) == 0 {
		t.Fatalf("expected assignments in report")
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.json")
	if err := os.WriteFile(script, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing script", Config{CatalogDB: "c", SelectOnly: true}},
		{"script not found", Config{ScriptPath: filepath.Join(dir, "nope.json"), CatalogDB: "c", SelectOnly: true}},
		{"missing catalog", Config{ScriptPath: script, SelectOnly: true}},
		{"negative duration", Config{ScriptPath: script, CatalogDB: "c", SelectOnly: true, AudioDuration: -1}},
		{"assemble needs audio", Config{ScriptPath: script, CatalogDB: "c"}},
		{"bad base url", Config{ScriptPath: script, CatalogDB: "c", SelectOnly: true, OpenAIAPIKey: "k", OpenAIBaseURL: "http://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
