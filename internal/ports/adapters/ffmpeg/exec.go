package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pridato/vidgen/internal/ports"
)

// Killed processes get this long to release their pipes before Wait gives up.
const waitDelay = 2 * time.Second

// run executes bin under a hard deadline. The process is killed and reaped
// when the deadline passes, and the error then wraps ports.ErrProcessTimeout.
func run(ctx context.Context, timeout time.Duration, step, bin string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = waitDelay
	b, err := cmd.CombinedOutput()
	if err == nil {
		return b, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return b, fmt.Errorf("%s after %s: %w", step, timeout, ports.ErrProcessTimeout)
	}
	return b, fmt.Errorf("%s: %w\n%s", step, err, tail(b, 40))
}

// tail keeps the last n lines of tool output; ffmpeg puts the cause at the end.
func tail(b []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
