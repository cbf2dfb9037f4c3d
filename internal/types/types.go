package types

import "strings"

type SegmentType string

const (
	SegmentHook       SegmentType = "hook"
	SegmentIntro      SegmentType = "intro"
	SegmentContent    SegmentType = "content"
	SegmentCTA        SegmentType = "cta"
	SegmentConclusion SegmentType = "conclusion"
)

// Family folds the alias types onto the three scoring families:
// intro behaves like hook, conclusion like cta, anything unknown like content.
func (t SegmentType) Family() SegmentType {
	switch SegmentType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case SegmentHook, SegmentIntro:
		return SegmentHook
	case SegmentCTA, SegmentConclusion:
		return SegmentCTA
	default:
		return SegmentContent
	}
}

type Motion string

const (
	MotionLow    Motion = "low"
	MotionMedium Motion = "medium"
	MotionHigh   Motion = "high"
)

// Level maps motion onto 1/2/3 (unknown counts as medium).
func (m Motion) Level() int {
	switch m {
	case MotionLow:
		return 1
	case MotionHigh:
		return 3
	default:
		return 2
	}
}

// Score maps motion onto [0..1] for the threshold checks.
func (m Motion) Score() float64 {
	switch m {
	case MotionLow:
		return 0.3
	case MotionHigh:
		return 0.9
	default:
		return 0.6
	}
}

type Clip struct {
	ID             string    `json:"id"`
	SourceVideoID  string    `json:"source_video_id"`
	Category       string    `json:"category"`
	Filename       string    `json:"filename"`
	Duration       float64   `json:"duration"`
	Embedding      []float64 `json:"embedding,omitempty"`
	ConceptTags    []string  `json:"concept_tags,omitempty"`
	EmotionTags    []string  `json:"emotion_tags,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	DominantColors []string  `json:"dominant_colors,omitempty"`
	Brightness     float64   `json:"brightness"`
	Saturation     float64   `json:"saturation"`
	Quality        float64   `json:"quality"`
	Motion         Motion    `json:"motion"`
	HookPotential  float64   `json:"hook_potential"`
	OutroPotential float64   `json:"outro_potential"`
	UsageCount     int       `json:"usage_count"`
	SuccessRate    float64   `json:"success_rate"`
	IsActive       bool      `json:"is_active"`
}

type ScriptSegment struct {
	Text           string      `json:"text"`
	Type           SegmentType `json:"type"`
	DurationWeight float64     `json:"duration_weight"`
	Emotion        string      `json:"emotion,omitempty"`
}

type TemporalSegment struct {
	ScriptSegment
	Index              int     `json:"index"`
	Start              float64 `json:"start_sec"`
	End                float64 `json:"end_sec"`
	ClipsNeeded        int     `json:"clips_needed"`
	ClipDurationTarget float64 `json:"clip_duration_target"`
}

func (s TemporalSegment) Duration() float64 { return s.End - s.Start }

type Role string

const (
	RoleMain       Role = "main"
	RoleTransition Role = "transition"
)

type Assignment struct {
	Clip         Clip        `json:"clip"`
	SegmentIndex int         `json:"segment_index"`
	SegmentType  SegmentType `json:"segment_type"`
	Start        float64     `json:"start_sec"`
	End          float64     `json:"end_sec"`
	Role         Role        `json:"role"`
	Similarity   float64     `json:"similarity_score"`
	SegmentScore float64     `json:"segment_score"`
	FinalScore   float64     `json:"final_score"`
}

func (a Assignment) Duration() float64 { return a.End - a.Start }

type SelectionResult struct {
	Assignments         []Assignment      `json:"assignments"`
	Segments            []TemporalSegment `json:"segments"`
	AudioDuration       float64           `json:"audio_duration"`
	TotalDuration       float64           `json:"total_duration"`
	TemporalCoverage    float64           `json:"temporal_coverage"`
	VisualCoherence     float64           `json:"visual_coherence"`
	EstimatedEngagement float64           `json:"estimated_engagement"`
	Warnings            []string          `json:"warnings"`
}

// MainAssignments returns the main-role assignments in timeline order.
func (r SelectionResult) MainAssignments() []Assignment {
	var out []Assignment
	for _, a := range r.Assignments {
		if a.Role == RoleMain {
			out = append(out, a)
		}
	}
	return out
}

type VideoProfile struct {
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	FPS            int    `yaml:"fps" json:"fps"`
	CRF            int    `yaml:"crf" json:"crf"`
	Preset         string `yaml:"preset" json:"preset"`
	MaxBitrateKbps int    `yaml:"max_bitrate_kbps" json:"max_bitrate_kbps"`
	AudioKbps      int    `yaml:"audio_bitrate_kbps" json:"audio_bitrate_kbps"`
}

type CompressionTier struct {
	Name             string `yaml:"name" json:"name"`
	VideoBitrateKbps int    `yaml:"video_bitrate_kbps" json:"video_bitrate_kbps"`
	Width            int    `yaml:"width" json:"width"`
	Height           int    `yaml:"height" json:"height"`
}

type AssemblyResult struct {
	VideoURL      string   `json:"video_url,omitempty"`
	VideoBytes    []byte   `json:"-"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	FinalDuration float64  `json:"final_duration"`
	FileSize      int64    `json:"file_size"`
	Strategy      string   `json:"strategy"`
	Warnings      []string `json:"warnings"`
}
