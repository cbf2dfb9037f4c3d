package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

// Timeouts bounds every spawned process. Zero fields fall back to defaults.
type Timeouts struct {
	Normalize time.Duration
	Concat    time.Duration
	Compress  time.Duration
	Frame     time.Duration
	Probe     time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	def := func(v, d time.Duration) time.Duration {
		if v <= 0 {
			return d
		}
		return v
	}
	return Timeouts{
		Normalize: def(t.Normalize, 45*time.Second),
		Concat:    def(t.Concat, 5*time.Minute),
		Compress:  def(t.Compress, 5*time.Minute),
		Frame:     def(t.Frame, 30*time.Second),
		Probe:     def(t.Probe, 15*time.Second),
	}
}

type Adapter struct {
	ffmpeg   string
	ffprobe  string
	timeouts Timeouts
}

var _ ports.Transcoder = (*Adapter)(nil)

func New(ffmpegPath, ffprobePath string, timeouts Timeouts) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, timeouts: timeouts.withDefaults()}
}

func (a *Adapter) Normalize(ctx context.Context, in, out string, duration float64, p types.VideoProfile) error {
	_, err := run(ctx, a.timeouts.Normalize, "ffmpeg normalize", a.ffmpeg, normalizeArgs(in, out, duration, p)...)
	return err
}

func (a *Adapter) ConcatCopy(ctx context.Context, job ports.ConcatJob) error {
	_, err := run(ctx, a.timeouts.Concat, "ffmpeg concat copy", a.ffmpeg, concatCopyArgs(job)...)
	return err
}

func (a *Adapter) ConcatReencode(ctx context.Context, job ports.ConcatJob) error {
	_, err := run(ctx, a.timeouts.Concat, "ffmpeg concat reencode", a.ffmpeg, concatReencodeArgs(job)...)
	return err
}

func (a *Adapter) SingleClip(ctx context.Context, job ports.ConcatJob) error {
	_, err := run(ctx, a.timeouts.Concat, "ffmpeg single clip", a.ffmpeg, singleClipArgs(job)...)
	return err
}

func (a *Adapter) Compress(ctx context.Context, in, out string, tier types.CompressionTier, p types.VideoProfile) error {
	_, err := run(ctx, a.timeouts.Compress, "ffmpeg compress "+tier.Name, a.ffmpeg, compressArgs(in, out, tier, p)...)
	return err
}

func (a *Adapter) ExtractFrame(ctx context.Context, in, out string, at float64) error {
	_, err := run(ctx, a.timeouts.Frame, "ffmpeg extract frame", a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(at),
		"-i", in,
		"-frames:v", "1",
		"-q:v", "2",
		out,
	)
	return err
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	b, err := run(ctx, a.timeouts.Probe, "ffprobe duration", a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// canvas letterboxes any input onto the profile's frame.
func canvas(w, h, fps int) string {
	f := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1", w, h, w, h)
	if fps > 0 {
		f += fmt.Sprintf(",fps=%d", fps)
	}
	return f + ",format=yuv420p"
}

func x264(p types.VideoProfile) []string {
	args := []string{"-c:v", "libx264", "-preset", p.Preset, "-crf", strconv.Itoa(p.CRF)}
	if p.MaxBitrateKbps > 0 {
		args = append(args,
			"-maxrate", fmt.Sprintf("%dk", p.MaxBitrateKbps),
			"-bufsize", fmt.Sprintf("%dk", 2*p.MaxBitrateKbps),
		)
	}
	return args
}

func aac(p types.VideoProfile) []string {
	kbps := p.AudioKbps
	if kbps <= 0 {
		kbps = 128
	}
	return []string{"-c:a", "aac", "-b:a", fmt.Sprintf("%dk", kbps)}
}

func normalizeArgs(in, out string, duration float64, p types.VideoProfile) []string {
	// tpad clones the last frame so short clips still fill their slot.
	vf := canvas(p.Width, p.Height, p.FPS) + ",tpad=stop_mode=clone:stop_duration=" + fmtSeconds(duration)
	args := []string{"-y", "-i", in, "-vf", vf, "-an"}
	args = append(args, x264(p)...)
	return append(args, "-t", fmtSeconds(duration), out)
}

// muxTail maps audio and the optional subtitle input, which follow the video
// inputs starting at index audioIdx.
func muxTail(job ports.ConcatJob, audioIdx int) []string {
	args := []string{"-map", fmt.Sprintf("%d:a:0", audioIdx)}
	if job.Subtitles != "" {
		args = append(args, "-map", fmt.Sprintf("%d:s:0", audioIdx+1), "-c:s", "mov_text")
	}
	args = append(args, aac(job.Profile)...)
	return append(args, "-t", fmtSeconds(job.Duration), "-movflags", "+faststart", job.Output)
}

func audioInputs(job ports.ConcatJob) []string {
	args := []string{"-i", job.Audio}
	if job.Subtitles != "" {
		args = append(args, "-i", job.Subtitles)
	}
	return args
}

func concatCopyArgs(job ports.ConcatJob) []string {
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", job.ListFile}
	args = append(args, audioInputs(job)...)
	args = append(args, "-map", "0:v:0", "-c:v", "copy")
	return append(args, muxTail(job, 1)...)
}

func concatReencodeArgs(job ports.ConcatJob) []string {
	args := []string{"-y"}
	for _, in := range job.Inputs {
		args = append(args, "-i", in)
	}
	args = append(args, audioInputs(job)...)

	p := job.Profile
	var g strings.Builder
	for i := range job.Inputs {
		f := canvas(p.Width, p.Height, p.FPS)
		if i < len(job.Durations) && job.Durations[i] > 0 {
			d := fmtSeconds(job.Durations[i])
			f += ",tpad=stop_mode=clone:stop_duration=" + d + ",trim=duration=" + d + ",setpts=PTS-STARTPTS"
		}
		fmt.Fprintf(&g, "[%d:v]%s[v%d];", i, f, i)
	}
	for i := range job.Inputs {
		fmt.Fprintf(&g, "[v%d]", i)
	}
	fmt.Fprintf(&g, "concat=n=%d:v=1:a=0[cat];[cat]tpad=stop_mode=clone:stop_duration=%s[outv]",
		len(job.Inputs), fmtSeconds(job.Duration))

	args = append(args, "-filter_complex", g.String(), "-map", "[outv]")
	args = append(args, x264(p)...)
	return append(args, muxTail(job, len(job.Inputs))...)
}

func singleClipArgs(job ports.ConcatJob) []string {
	first := ""
	if len(job.Inputs) > 0 {
		first = job.Inputs[0]
	}
	p := job.Profile
	args := []string{"-y", "-stream_loop", "-1", "-i", first}
	args = append(args, audioInputs(job)...)
	args = append(args, "-map", "0:v:0", "-vf", canvas(p.Width, p.Height, p.FPS))
	args = append(args, x264(p)...)
	return append(args, muxTail(job, 1)...)
}

func compressArgs(in, out string, tier types.CompressionTier, p types.VideoProfile) []string {
	kbps := tier.VideoBitrateKbps
	args := []string{
		"-y", "-i", in,
		"-map", "0",
		"-vf", canvas(tier.Width, tier.Height, 0),
		"-c:v", "libx264", "-preset", p.Preset,
		"-b:v", fmt.Sprintf("%dk", kbps),
		"-maxrate", fmt.Sprintf("%dk", kbps),
		"-bufsize", fmt.Sprintf("%dk", 2*kbps),
		"-c:s", "copy",
	}
	args = append(args, aac(p)...)
	return append(args, "-movflags", "+faststart", out)
}

func fmtSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
