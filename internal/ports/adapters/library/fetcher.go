package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

const downloadTimeout = 2 * time.Minute

// Fetcher resolves clip filenames. Plain names are joined to Root; http(s)
// URLs are downloaded into the caller's directory.
type Fetcher struct {
	Root   string
	client *http.Client
}

var _ ports.ClipFetcher = (*Fetcher)(nil)

func New(root string) *Fetcher {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	return &Fetcher{Root: root, client: &http.Client{Timeout: downloadTimeout}}
}

func (f *Fetcher) Fetch(ctx context.Context, clip types.Clip, dir string) (string, error) {
	name := strings.TrimSpace(clip.Filename)
	if name == "" {
		return "", fmt.Errorf("clip %s has no filename", clip.ID)
	}
	if u, err := url.Parse(name); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.download(ctx, clip.ID, u, dir)
	}

	p := name
	if !filepath.IsAbs(p) {
		if f.Root == "" {
			return "", fmt.Errorf("clip %s: relative filename %q without a library root", clip.ID, name)
		}
		p = filepath.Join(f.Root, filepath.FromSlash(name))
		rel, err := filepath.Rel(f.Root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("clip %s: filename %q escapes the library root", clip.ID, name)
		}
	}
	st, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("clip %s: %w", clip.ID, err)
	}
	if st.IsDir() {
		return "", fmt.Errorf("clip %s: %s is a directory", clip.ID, p)
	}
	return p, nil
}

func (f *Fetcher) download(ctx context.Context, id string, u *url.URL, dir string) (string, error) {
	ext := path.Ext(u.Path)
	if ext == "" {
		ext = ".mp4"
	}
	out := filepath.Join(dir, sanitize(id)+ext)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("clip %s: %w", id, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download clip %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("download clip %s: status %d", id, resp.StatusCode)
	}

	file, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create clip file: %w", err)
	}
	n, err := io.Copy(file, resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = errors.New("empty body")
	}
	if err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("download clip %s: %w", id, err)
	}
	return out, nil
}

func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "clip"
	}
	return b.String()
}
