package coach

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/repcircle/repcircle/store"
)

// durationPattern captures "20 minutes", "45min", "1.5 hours", "2h".
var durationPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(minutes?|mins?|min|hours?|hrs?|hr|h)\b`)

type slotRule struct {
	value   string
	pattern *regexp.Regexp
}

var energyRules = []slotRule{
	{"low", regexp.MustCompile(`(?i)\b(?:exhausted|tired|drained|wiped|beat|sluggish|worn out|low energy)\b`)},
	{"high", regexp.MustCompile(`(?i)\b(?:energized|pumped|fresh|fired up|feeling great|full of energy)\b`)},
}

var locationRules = []slotRule{
	{"home", regexp.MustCompile(`(?i)\b(?:at home|from home|home workout|living room|apartment|no equipment|bodyweight only)\b`)},
	{"gym", regexp.MustCompile(`(?i)\b(?:gym|barbell|squat rack|cable machine)\b`)},
	{"outdoor", regexp.MustCompile(`(?i)\b(?:outside|outdoors?|park|trail)\b`)},
}

var focusRules = []slotRule{
	{"legs", regexp.MustCompile(`(?i)\b(?:legs?|leg day|lower body|quads?|glutes?|hamstrings?|calves)\b`)},
	{"upper body", regexp.MustCompile(`(?i)\b(?:upper body|arms?|chest|shoulders?|biceps?|triceps?|push day|pull day|back day)\b`)},
	{"core", regexp.MustCompile(`(?i)\b(?:core|abs)\b`)},
	{"cardio", regexp.MustCompile(`(?i)\b(?:cardio|conditioning|endurance)\b`)},
	{"full body", regexp.MustCompile(`(?i)\b(?:full body|whole body|total body)\b`)},
}

var intensityRules = []slotRule{
	{"light", regexp.MustCompile(`(?i)\b(?:easy|light|gentle|chill|recovery pace)\b`)},
	{"high", regexp.MustCompile(`(?i)\b(?:intense|hard|heavy|brutal|all out|high intensity)\b`)},
	{"moderate", regexp.MustCompile(`(?i)\b(?:moderate|medium)\b`)},
}

// ExtractImplicitContext pre-fills slots by pattern matching over the
// raw message before the model call. It exists purely to save
// clarification turns: partial or zero matches are fine, and it never
// errors.
func ExtractImplicitContext(message string) store.CoachSlots {
	slots := store.CoachSlots{
		Energy:    matchFirst(energyRules, message),
		Location:  matchFirst(locationRules, message),
		Focus:     matchFirst(focusRules, message),
		Intensity: matchFirst(intensityRules, message),
	}

	if m := durationPattern.FindStringSubmatch(message); m != nil {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			if strings.HasPrefix(strings.ToLower(m[2]), "h") {
				value *= 60
			}
			if minutes := int(math.Round(value)); minutes > 0 {
				slots.DurationMinutes = &minutes
			}
		}
	}
	return slots
}

func matchFirst(rules []slotRule, message string) string {
	for _, rule := range rules {
		if rule.pattern.MatchString(message) {
			return rule.value
		}
	}
	return ""
}
