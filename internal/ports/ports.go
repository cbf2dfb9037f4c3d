package ports

import (
	"context"
	"errors"
	"time"

	"github.com/pridato/vidgen/internal/types"
)

// ErrProcessTimeout marks an external process killed at its deadline.
var ErrProcessTimeout = errors.New("external process timed out")

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type Catalog interface {
	ActiveClips(ctx context.Context, category string) ([]types.Clip, error)
}

type UsageRecorder interface {
	RecordUsage(ctx context.Context, clipIDs []string) error
}

type ClipFetcher interface {
	// Fetch makes the clip's media available as a local file, downloading
	// into dir when the source is remote.
	Fetch(ctx context.Context, clip types.Clip, dir string) (string, error)
}

type Storage interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// ConcatJob describes one assembly attempt over already prepared clips.
type ConcatJob struct {
	Inputs    []string
	// Durations holds each input's slot length; re-encoding trims or holds
	// every input to it when set.
	Durations []float64
	ListFile  string
	Audio     string
	Subtitles string
	Output    string
	Duration  float64
	Profile   types.VideoProfile
}

type Transcoder interface {
	Normalize(ctx context.Context, in, out string, duration float64, p types.VideoProfile) error
	ConcatCopy(ctx context.Context, job ConcatJob) error
	ConcatReencode(ctx context.Context, job ConcatJob) error
	SingleClip(ctx context.Context, job ConcatJob) error
	Compress(ctx context.Context, in, out string, tier types.CompressionTier, p types.VideoProfile) error
	ExtractFrame(ctx context.Context, in, out string, at float64) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}
