package selection

// Usage is the request-local dedup accumulator threaded through every
// selection step. It is not safe for concurrent use and must not outlive
// the request that created it.
type Usage struct {
	clips   map[string]struct{}
	sources map[string]struct{}

	// AllowSourceReuse relaxes source-video dedup (clip ids stay unique).
	AllowSourceReuse bool
}

func NewUsage() *Usage {
	return &Usage{
		clips:   make(map[string]struct{}),
		sources: make(map[string]struct{}),
	}
}

func (u *Usage) ClipUsed(id string) bool {
	_, ok := u.clips[id]
	return ok
}

func (u *Usage) SourceUsed(source string) bool {
	if u.AllowSourceReuse || source == "" {
		return false
	}
	_, ok := u.sources[source]
	return ok
}

// Available reports whether neither the clip nor its source was used yet.
func (u *Usage) Available(clipID, source string) bool {
	return !u.ClipUsed(clipID) && !u.SourceUsed(source)
}

func (u *Usage) Mark(clipID, source string) {
	u.clips[clipID] = struct{}{}
	if source != "" {
		u.sources[source] = struct{}{}
	}
}

func (u *Usage) Len() int { return len(u.clips) }
