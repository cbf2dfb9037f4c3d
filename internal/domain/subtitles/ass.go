package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/pridato/vidgen/internal/types"
)

// RenderASS builds a subtitle track from the narration windows. Each
// window's text is split into short lines that share the window's time
// in proportion to their length.
func RenderASS(segs []types.TemporalSegment, width, height int) string {
	var b strings.Builder
	b.WriteString(assHeader(width, height))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, s := range segs {
		for _, ln := range timeLines(s) {
			b.WriteString("Dialogue: 0,")
			b.WriteString(assTime(ln.Start))
			b.WriteString(",")
			b.WriteString(assTime(ln.End))
			b.WriteString(",Narration,,0,0,0,,")
			b.WriteString(ln.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

type line struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

func timeLines(s types.TemporalSegment) []line {
	texts := packWords(strings.Fields(sanitizeASS(s.Text)))
	if len(texts) == 0 || s.Duration() <= 0 {
		return nil
	}
	total := 0
	for _, t := range texts {
		total += len([]rune(t))
	}

	start, end := dur(s.Start), dur(s.End)
	span := end - start
	out := make([]line, 0, len(texts))
	cursor := start
	used := 0
	for i, t := range texts {
		used += len([]rune(t))
		next := start + time.Duration(float64(span)*float64(used)/float64(total))
		if i == len(texts)-1 {
			next = end
		}
		out = append(out, line{Start: cursor, End: next, Text: t})
		cursor = next
	}
	return out
}

func packWords(words []string) []string {
	// Hard budgets keep lines readable on vertical layouts.
	const (
		charBudget = 32
		wordBudget = 6
	)
	var out []string
	var cur []string
	curLen := 0
	for _, w := range words {
		wl := len([]rune(w))
		nextLen := curLen + wl
		if curLen > 0 {
			nextLen++
		}
		if len(cur) > 0 && (len(cur) >= wordBudget || nextLen > charBudget) {
			out = append(out, strings.Join(cur, " "))
			cur, curLen = nil, 0
			nextLen = wl
		}
		cur = append(cur, w)
		curLen = nextLen
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

func assHeader(width, height int) string {
	if width <= 0 || height <= 0 {
		width, height = 1080, 1920
	}
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Narration, Inter, 64, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,5,2,2, 60,60,220,1
`), width, height)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
