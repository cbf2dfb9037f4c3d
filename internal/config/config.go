package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pridato/vidgen/internal/domain/timeline"
	"github.com/pridato/vidgen/internal/types"
)

// Tuning holds the assembly knobs that can be overridden from a YAML file.
type Tuning struct {
	Video          types.VideoProfile      `yaml:"video"`
	SizeCeilingMB  float64                 `yaml:"size_ceiling_mb"`
	Compression    []types.CompressionTier `yaml:"compression"`
	Timeouts       Timeouts                `yaml:"timeouts"`
	Workers        int                     `yaml:"workers"`
	Subtitles      bool                    `yaml:"subtitles"`
	ThumbnailWidth int                     `yaml:"thumbnail_width"`
	Density        timeline.DensityTable   `yaml:"density"`
}

type Timeouts struct {
	Normalize time.Duration `yaml:"normalize"`
	Concat    time.Duration `yaml:"concat"`
	Compress  time.Duration `yaml:"compress"`
	Thumbnail time.Duration `yaml:"thumbnail"`
	Probe     time.Duration `yaml:"probe"`
}

var allowedPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {}, "fast": {},
	"medium": {}, "slow": {}, "slower": {}, "veryslow": {},
}

func Default() Tuning {
	return Tuning{
		Video: types.VideoProfile{
			Width:          1080,
			Height:         1920,
			FPS:            30,
			CRF:            23,
			Preset:         "veryfast",
			MaxBitrateKbps: 4000,
			AudioKbps:      128,
		},
		SizeCeilingMB: 50,
		Compression: []types.CompressionTier{
			{Name: "high", VideoBitrateKbps: 2500, Width: 1080, Height: 1920},
			{Name: "medium", VideoBitrateKbps: 1500, Width: 1080, Height: 1920},
			{Name: "low", VideoBitrateKbps: 1000, Width: 720, Height: 1280},
			{Name: "minimum", VideoBitrateKbps: 600, Width: 540, Height: 960},
		},
		Timeouts: Timeouts{
			Normalize: 45 * time.Second,
			Concat:    5 * time.Minute,
			Compress:  5 * time.Minute,
			Thumbnail: 30 * time.Second,
			Probe:     15 * time.Second,
		},
		Workers:        2,
		Subtitles:      true,
		ThumbnailWidth: 360,
		Density:        timeline.DefaultDensity(),
	}
}

// Load reads a tuning file on top of the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Tuning, error) {
	t := Default()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) SizeCeilingBytes() int64 {
	return int64(t.SizeCeilingMB * 1024 * 1024)
}

func (t Tuning) Validate() error {
	v := t.Video
	if v.Width <= 0 || v.Height <= 0 {
		return errors.New("video width and height must be > 0")
	}
	if v.Width%2 != 0 || v.Height%2 != 0 {
		return errors.New("video width and height must be even")
	}
	if v.FPS <= 0 {
		return errors.New("video fps must be > 0")
	}
	if _, ok := allowedPresets[v.Preset]; !ok {
		return fmt.Errorf("unknown video preset %q", v.Preset)
	}
	if t.SizeCeilingMB <= 0 {
		return errors.New("size_ceiling_mb must be > 0")
	}
	for i, c := range t.Compression {
		if c.VideoBitrateKbps <= 0 {
			return fmt.Errorf("compression tier %d: video bitrate must be > 0", i)
		}
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("compression tier %d: width and height must be > 0", i)
		}
	}
	if t.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	for name, d := range map[string]time.Duration{
		"normalize": t.Timeouts.Normalize,
		"concat":    t.Timeouts.Concat,
		"compress":  t.Timeouts.Compress,
		"thumbnail": t.Timeouts.Thumbnail,
		"probe":     t.Timeouts.Probe,
	} {
		if d <= 0 {
			return fmt.Errorf("timeout %s must be > 0", name)
		}
	}
	for st, d := range t.Density {
		if d.Rate <= 0 || d.Min < 1 || (d.Max > 0 && d.Max < d.Min) {
			return fmt.Errorf("density %s: rate must be > 0 and 1 <= min <= max", st)
		}
	}
	return nil
}
