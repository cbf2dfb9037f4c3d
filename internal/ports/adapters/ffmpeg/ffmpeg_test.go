package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

var profile = types.VideoProfile{Width: 1080, Height: 1920, FPS: 30, CRF: 23, Preset: "veryfast", MaxBitrateKbps: 4000, AudioKbps: 128}

func argAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestNormalizeArgs(t *testing.T) {
	args := normalizeArgs("in.mp4", "out.mp4", 2.5, profile)
	if !slices.Contains(args, "-an") {
		t.Fatalf("expected audio to be stripped: %v", args)
	}
	if got := argAfter(args, "-t"); got != "2.500" {
		t.Fatalf("-t = %q, want 2.500", got)
	}
	vf := argAfter(args, "-vf")
	for _, want := range []string{"scale=1080:1920", "pad=1080:1920", "fps=30", "tpad=stop_mode=clone"} {
		if !strings.Contains(vf, want) {
			t.Fatalf("filter %q missing %q", vf, want)
		}
	}
	if argAfter(args, "-maxrate") != "4000k" || argAfter(args, "-bufsize") != "8000k" {
		t.Fatalf("expected bitrate cap: %v", args)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output must be last: %v", args)
	}
}

func TestConcatCopyArgs_WithSubtitles(t *testing.T) {
	job := ports.ConcatJob{ListFile: "list.txt", Audio: "a.mp3", Subtitles: "s.ass", Output: "o.mp4", Duration: 42, Profile: profile}
	args := concatCopyArgs(job)
	joined := strings.Join(args, " ")
	for _, want := range []string{"-f concat -safe 0 -i list.txt", "-i a.mp3 -i s.ass", "-map 0:v:0 -c:v copy", "-map 1:a:0", "-map 2:s:0 -c:s mov_text", "-t 42.000"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestConcatCopyArgs_NoSubtitles(t *testing.T) {
	job := ports.ConcatJob{ListFile: "list.txt", Audio: "a.mp3", Output: "o.mp4", Duration: 5, Profile: profile}
	if joined := strings.Join(concatCopyArgs(job), " "); strings.Contains(joined, "mov_text") {
		t.Fatalf("unexpected subtitle mapping: %s", joined)
	}
}

func TestConcatReencodeArgs_Graph(t *testing.T) {
	job := ports.ConcatJob{Inputs: []string{"a.mp4", "b.mp4", "c.mp4"}, Audio: "a.mp3", Output: "o.mp4", Duration: 12, Profile: profile}
	args := concatReencodeArgs(job)
	graph := argAfter(args, "-filter_complex")
	if !strings.Contains(graph, "[v0][v1][v2]concat=n=3:v=1:a=0[cat]") {
		t.Fatalf("unexpected graph: %s", graph)
	}
	if argAfter(args, "-map") != "[outv]" {
		t.Fatalf("expected filtered video mapping: %v", args)
	}
	if !strings.Contains(strings.Join(args, " "), "-map 3:a:0") {
		t.Fatalf("audio should follow the video inputs: %v", args)
	}
}

func TestConcatReencodeArgs_HoldsEachInputToItsSlot(t *testing.T) {
	job := ports.ConcatJob{
		Inputs:    []string{"a.mp4", "b.mp4"},
		Durations: []float64{7.75, 12.25},
		Audio:     "a.mp3",
		Output:    "o.mp4",
		Duration:  20,
		Profile:   profile,
	}
	graph := argAfter(concatReencodeArgs(job), "-filter_complex")
	for _, want := range []string{
		"tpad=stop_mode=clone:stop_duration=7.750,trim=duration=7.750,setpts=PTS-STARTPTS[v0]",
		"tpad=stop_mode=clone:stop_duration=12.250,trim=duration=12.250,setpts=PTS-STARTPTS[v1]",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("graph missing %q: %s", want, graph)
		}
	}
}

func TestSingleClipArgs_LoopsFirstInput(t *testing.T) {
	job := ports.ConcatJob{Inputs: []string{"first.mp4", "second.mp4"}, Audio: "a.mp3", Output: "o.mp4", Duration: 30, Profile: profile}
	joined := strings.Join(singleClipArgs(job), " ")
	if !strings.Contains(joined, "-stream_loop -1 -i first.mp4") || strings.Contains(joined, "second.mp4") {
		t.Fatalf("unexpected single clip args: %s", joined)
	}
}

func TestCompressArgs(t *testing.T) {
	args := compressArgs("in.mp4", "out.mp4", types.CompressionTier{Name: "low", VideoBitrateKbps: 1000, Width: 720, Height: 1280}, profile)
	if argAfter(args, "-b:v") != "1000k" {
		t.Fatalf("unexpected bitrate: %v", args)
	}
	if !strings.Contains(argAfter(args, "-vf"), "scale=720:1280") {
		t.Fatalf("unexpected scale: %v", args)
	}
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	start := time.Now()
	_, err := run(context.Background(), 100*time.Millisecond, "sleep", "sleep", "10")
	if !errors.Is(err, ports.ErrProcessTimeout) {
		t.Fatalf("expected ErrProcessTimeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("process was not killed at its deadline")
	}
}

func TestRun_FailureIncludesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	_, err := run(context.Background(), time.Second, "step", "sh", "-c", "echo boom >&2; exit 3")
	if err == nil || errors.Is(err, ports.ErrProcessTimeout) {
		t.Fatalf("expected plain failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}
