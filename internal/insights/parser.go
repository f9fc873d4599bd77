package insights

import (
	"strings"

	"github.com/sara-ai/checkin-service/internal/store/model"
)

var (
	defaultRecommendations = []string{
		"Continue maintaining regular check-ins",
		"Monitor overall well-being trends",
		"Stay engaged with work activities",
	}

	narrativeDefaults = map[string]string{
		keyOverall:      "The employee appeared calm and engaged during the check-in, showing positive energy and focus.",
		keyEmotional:    "Emotional state appears balanced and positive, with good energy levels.",
		keyMotivation:   "Work motivation appears high, with strong engagement and active participation.",
		keyProfessional: "Professional presentation was maintained throughout the check-in.",
		keyObservations: "AI analysis detected standard behavioral patterns consistent with a routine check-in.",
	}

	defaultSummary = "The check-in was completed without notable concerns in the recorded signals."
)

const (
	keyOverall         = "OVERALL_EXPERIENCE"
	keyEmotional       = "EMOTIONAL_STATE"
	keyMotivation      = "WORK_MOTIVATION"
	keyProfessional    = "PROFESSIONAL_APPEARANCE"
	keyObservations    = "AI_OBSERVATIONS"
	keyRecommendations = "RECOMMENDATIONS"
	keySummary         = "SUMMARY"
	keyActions         = "ACTIONS"
)

// layout names the text sections and the list section of a response shape.
type layout struct {
	text []string
	list string
}

var layouts = map[model.InsightsShape]layout{
	model.ShapeNarrative: {
		text: []string{keyOverall, keyEmotional, keyMotivation, keyProfessional, keyObservations},
		list: keyRecommendations,
	},
	model.ShapeSummary: {
		text: []string{keySummary},
		list: keyActions,
	},
}

// sections is the raw result of a parse.
type sections struct {
	text  map[string]string
	items []string
}

func (s sections) empty() bool {
	for _, t := range s.text {
		if t != "" {
			return false
		}
	}
	return len(s.items) == 0
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*")
}

// matchKeyword returns the section keyword that opens line, if any, and the
// text that follows its colon. Markdown emphasis around the keyword is ignored.
func (l layout) matchKeyword(line string) (string, string, bool) {
	candidate := strings.ToUpper(strings.TrimLeft(line, "#* "))
	keys := append(append([]string{}, l.text...), l.list)
	for _, key := range keys {
		if !strings.HasPrefix(candidate, key) {
			continue
		}
		if tail := strings.TrimLeft(candidate[len(key):], "* "); tail != "" && !strings.HasPrefix(tail, ":") {
			continue
		}
		rest := ""
		if _, after, found := strings.Cut(line, ":"); found {
			rest = strings.TrimSpace(strings.TrimLeft(after, "* "))
		}
		return key, rest, true
	}
	return "", "", false
}

// parse walks the response line by line. A keyword opens its section, the
// following lines are appended to it until the next keyword. Bullets belong
// to the list when the list section is open or no section is.
func (l layout) parse(response string) sections {
	out := sections{text: map[string]string{}}

	var (
		current string
		buf     []string
	)
	flush := func() {
		if current != "" && len(buf) > 0 {
			out.text[current] = strings.TrimSpace(strings.Join(buf, " "))
		}
	}

	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if key, rest, ok := l.matchKeyword(line); ok {
			flush()
			buf = nil
			current = ""
			if key == l.list {
				continue
			}
			current = key
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}

		switch {
		case current != "":
			buf = append(buf, line)
		case isBullet(line):
			if item := strings.TrimSpace(strings.TrimLeft(line, "- •*")); item != "" {
				out.items = append(out.items, item)
			}
		}
	}
	flush()

	return out
}

// Parse turns a model response into insights. ok is false when nothing could
// be recognized. Missing sections take defaults.
func Parse(shape model.InsightsShape, response string) (model.Insights, bool) {
	l, found := layouts[shape]
	if !found {
		return model.Insights{}, false
	}

	s := l.parse(response)
	if s.empty() {
		return model.Insights{}, false
	}

	items := s.items
	if len(items) == 0 {
		items = append([]string{}, defaultRecommendations...)
	}

	in := model.Insights{Shape: shape, Source: model.SourceModel}
	switch shape {
	case model.ShapeSummary:
		in.Summary = orDefault(s.text[keySummary], defaultSummary)
		in.ActionItems = items
	default:
		in.OverallExperience = orDefault(s.text[keyOverall], narrativeDefaults[keyOverall])
		in.EmotionalState = orDefault(s.text[keyEmotional], narrativeDefaults[keyEmotional])
		in.WorkMotivation = orDefault(s.text[keyMotivation], narrativeDefaults[keyMotivation])
		in.ProfessionalAppearance = orDefault(s.text[keyProfessional], narrativeDefaults[keyProfessional])
		in.AIObservations = orDefault(s.text[keyObservations], narrativeDefaults[keyObservations])
		in.Recommendations = items
	}
	return in, true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
