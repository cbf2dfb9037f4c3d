package assembly

import (
	"math"
	"sort"

	"github.com/pridato/vidgen/internal/types"
)

// minSlot drops cuts too short to survive encoding.
const minSlot = 0.05

type cut struct {
	assignment types.Assignment
	start, end float64
}

// planCuts flattens the merged timeline into contiguous cuts covering
// [0, total). A transition keeps its whole window; the mains around it yield
// the overlap. A hole left by a short or empty segment is filled by holding
// the previous cut, so every cut plays at its assigned start.
func planCuts(assignments []types.Assignment, total float64) []cut {
	items := append([]types.Assignment(nil), assignments...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Start != items[j].Start {
			return items[i].Start < items[j].Start
		}
		return items[i].Role == types.RoleMain && items[j].Role != types.RoleMain
	})

	var out []cut
	cursor := 0.0
	for i, a := range items {
		start := math.Max(a.Start, cursor)
		end := a.End
		if i+1 < len(items) && a.Role == types.RoleMain {
			end = math.Min(end, items[i+1].Start)
		}
		if end-start < minSlot {
			continue
		}
		if start > cursor {
			if len(out) > 0 {
				out[len(out)-1].end = start
			} else {
				start = 0
			}
		}
		out = append(out, cut{assignment: a, start: start, end: end})
		cursor = end
	}
	if n := len(out); n > 0 && out[n-1].end < total {
		out[n-1].end = total
	}
	return out
}
