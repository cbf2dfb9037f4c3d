package scoring

import "strings"

var positiveOrNeutral = map[string]struct{}{
	"happy": {}, "joy": {}, "joyful": {}, "excited": {}, "exciting": {}, "energetic": {},
	"inspiring": {}, "inspired": {}, "uplifting": {}, "hopeful": {}, "confident": {},
	"motivated": {}, "motivational": {}, "playful": {}, "fun": {}, "warm": {}, "friendly": {},
	"proud": {}, "love": {}, "success": {}, "triumphant": {}, "curious": {}, "surprised": {},
	"calm": {}, "peaceful": {}, "relaxed": {}, "serene": {}, "neutral": {}, "focused": {},
	"professional": {}, "informative": {}, "positive": {},
}

// EmotionPositivity is the share of tags that are positive or neutral.
// A clip without emotion tags is treated as neutral.
func EmotionPositivity(tags []string) float64 {
	total, good := 0, 0
	for _, t := range tags {
		v := strings.ToLower(strings.TrimSpace(t))
		if v == "" {
			continue
		}
		total++
		if _, ok := positiveOrNeutral[v]; ok {
			good++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(good) / float64(total)
}
