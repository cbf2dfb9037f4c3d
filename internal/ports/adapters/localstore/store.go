package localstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pridato/vidgen/internal/ports"
)

// Store writes objects under Dir and serves them from PublicBaseURL. With
// no base URL the returned location is the absolute file path.
type Store struct {
	Dir           string
	PublicBaseURL string
}

var _ ports.Storage = (*Store)(nil)

func New(dir, publicBaseURL string) *Store {
	return &Store{Dir: dir, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", fmt.Errorf("storage: empty object key")
	}
	clean = strings.TrimPrefix(clean, "/")

	dst := filepath.Join(s.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	// write then rename so readers never see a partial object
	tmp := dst + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s (%s): %w", clean, contentType, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: %w", err)
	}

	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + "/" + clean, nil
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return dst, nil
	}
	return abs, nil
}
