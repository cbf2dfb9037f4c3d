package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pridato/vidgen/internal/types"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default tuning invalid: %v", err)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Video.Width != 1080 || len(got.Compression) != 4 {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestLoad_OverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := `
video:
  width: 720
  height: 1280
  fps: 25
  crf: 26
  preset: fast
size_ceiling_mb: 8
compression:
  - name: small
    video_bitrate_kbps: 800
    width: 540
    height: 960
timeouts:
  normalize: 10s
  concat: 2m
  compress: 2m
  thumbnail: 5s
  probe: 5s
workers: 4
density:
  content:
    rate: 0.3
    min: 2
    max: 8
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Video.Width != 720 || got.Video.FPS != 25 || got.Video.Preset != "fast" {
		t.Fatalf("video not overridden: %+v", got.Video)
	}
	if got.SizeCeilingBytes() != 8*1024*1024 {
		t.Fatalf("unexpected ceiling: %d", got.SizeCeilingBytes())
	}
	if len(got.Compression) != 1 || got.Compression[0].Name != "small" {
		t.Fatalf("compression not overridden: %+v", got.Compression)
	}
	if got.Timeouts.Normalize != 10*time.Second || got.Timeouts.Concat != 2*time.Minute {
		t.Fatalf("timeouts not parsed: %+v", got.Timeouts)
	}
	if d := got.Density[types.SegmentContent]; d.Rate != 0.3 || d.Min != 2 || d.Max != 8 {
		t.Fatalf("density not overridden: %+v", d)
	}
	if _, ok := got.Density[types.SegmentHook]; !ok {
		t.Fatalf("untouched density entries should keep defaults")
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("video:\n  preset: warp\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected invalid preset error")
	}
}
