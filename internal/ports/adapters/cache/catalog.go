package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pridato/vidgen/internal/ports"
	"github.com/pridato/vidgen/internal/types"
)

// Catalog caches ActiveClips per category for a fixed TTL. Callers get their
// own copy of the slice, so one request cannot mutate another's pool.
type Catalog struct {
	next ports.Catalog
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	clips   []types.Clip
	expires time.Time
}

var _ ports.Catalog = (*Catalog)(nil)

func New(next ports.Catalog, ttl time.Duration) *Catalog {
	return &Catalog{next: next, ttl: ttl, now: time.Now, entries: map[string]entry{}}
}

func (c *Catalog) ActiveClips(ctx context.Context, category string) ([]types.Clip, error) {
	if c.ttl <= 0 {
		return c.next.ActiveClips(ctx, category)
	}
	c.mu.Lock()
	e, ok := c.entries[category]
	c.mu.Unlock()
	if ok && c.now().Before(e.expires) {
		return cloneClips(e.clips), nil
	}

	clips, err := c.next.ActiveClips(ctx, category)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[category] = entry{clips: cloneClips(clips), expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return clips, nil
}

func cloneClips(in []types.Clip) []types.Clip {
	if in == nil {
		return nil
	}
	out := make([]types.Clip, len(in))
	copy(out, in)
	return out
}
