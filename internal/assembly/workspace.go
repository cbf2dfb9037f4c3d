package assembly

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is the scratch directory of one assembly run. Everything the run
// writes lives under Dir and is removed by Cleanup.
type Workspace struct {
	ID  string
	Dir string
}

const (
	clipsDir = "clips"
	normDir  = "norm"
)

// NewWorkspace creates a fresh run directory under parent, or under the
// system temp dir when parent is empty.
func NewWorkspace(parent string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace parent: %w", err)
		}
	}
	id := uuid.NewString()
	dir, err := os.MkdirTemp(parent, "vidgen-"+id[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	ws := &Workspace{ID: id, Dir: dir}
	for _, sub := range []string{clipsDir, normDir} {
		if err := os.MkdirAll(ws.Path(sub), 0o755); err != nil {
			_ = ws.Cleanup()
			return nil, fmt.Errorf("create workspace %s dir: %w", sub, err)
		}
	}
	return ws, nil
}

func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	p := w.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}

func (w *Workspace) Cleanup() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}
