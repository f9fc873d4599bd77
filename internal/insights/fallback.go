package insights

import (
	"fmt"
	"strings"

	"github.com/sara-ai/checkin-service/internal/store/model"
)

const (
	lowStress       = 40.0
	highStress      = 70.0
	highEngagement  = 70.0
	midEngagement   = 40.0
	poorEngagement  = 50.0
	fatigueEvents   = 5
	professionalTxt = "Professional appearance and office ethics were maintained throughout the session. The employee presented themselves appropriately for the workplace environment."
)

type tier struct {
	overall    string
	emotional  string
	motivation string
}

var (
	calmTier = tier{
		overall:    "The employee appeared calm and engaged during the check-in, showing positive energy and focus. Their demeanor suggested a comfortable and confident state of mind.",
		emotional:  "Emotional state appears balanced and positive, with good energy levels and a sense of well-being evident throughout the session.",
		motivation: "Work motivation appears high, with strong engagement and active participation. The employee demonstrated enthusiasm and commitment to their work.",
	}
	moderateTier = tier{
		overall:    "The check-in showed moderate engagement with some signs of normal work-related stress. The employee maintained a professional demeanor while showing typical workplace energy levels.",
		emotional:  "Emotional state is generally stable, though some stress indicators were present. The employee managed their emotions well while navigating work demands.",
		motivation: "Work motivation is at a moderate level, with consistent participation and engagement. The employee shows dedication but may benefit from additional support.",
	}
	strainedTier = tier{
		overall:    "The check-in revealed elevated stress levels and reduced engagement, suggesting potential concerns. The employee appeared less comfortable and may be experiencing challenges.",
		emotional:  "Emotional state shows signs of stress and may benefit from support and attention. The employee's emotional well-being appears to need monitoring and care.",
		motivation: "Work motivation appears lower than optimal, with reduced engagement levels. The employee may be experiencing factors affecting their work enthusiasm.",
	}
)

func selectTier(stress, engagement float64) tier {
	switch {
	case stress < lowStress && engagement >= highEngagement:
		return calmTier
	case stress < highStress && engagement >= midEngagement:
		return moderateTier
	default:
		return strainedTier
	}
}

func observations(m model.Metrics) string {
	var parts []string
	if m.YawnsCount > fatigueEvents {
		parts = append(parts, "The analysis detected signs of fatigue")
	}
	if m.StressAvg > highStress {
		parts = append(parts, "elevated stress indicators were observed")
	}
	if m.EngagementScore < poorEngagement {
		parts = append(parts, "engagement levels were lower than typical")
	}

	if len(parts) == 0 {
		return "AI analysis detected standard behavioral patterns consistent with a routine check-in. The employee's patterns align with healthy work engagement."
	}
	return fmt.Sprintf("AI analysis detected patterns indicating %s. These observations suggest the employee may benefit from wellness support and attention to their work-life balance.", strings.Join(parts, ", "))
}

func recommendations(m model.Metrics) []string {
	var recs []string
	if m.StressAvg > highStress {
		recs = append(recs, "Consider stress management techniques like deep breathing exercises or short breaks throughout the day")
	}
	if m.YawnsCount > fatigueEvents {
		recs = append(recs, "Ensure adequate rest and sleep to maintain alertness and productivity")
	}
	if m.EngagementScore < poorEngagement {
		recs = append(recs, "Take regular breaks to maintain focus and consider discussing workload with your supervisor")
	}
	if m.Audio.HasAudio && m.Audio.Sentiment == model.SentimentNegative {
		recs = append(recs, "Consider discussing challenges with your team or manager to address concerns")
	}

	if len(recs) == 0 {
		return append([]string{}, defaultRecommendations...)
	}
	return recs
}

// Fallback derives insights from the metrics alone. The result only depends
// on its arguments.
func Fallback(shape model.InsightsShape, m model.Metrics, employeeName string) model.Insights {
	t := selectTier(m.StressAvg, m.EngagementScore)

	if shape == model.ShapeSummary {
		return model.Insights{
			Shape:   model.ShapeSummary,
			Source:  model.SourceFallback,
			Summary: fmt.Sprintf("%s's check-in recorded an average stress level of %.1f%% and an engagement score of %.1f%%, with %d fatigue events. %s",
				employeeName, m.StressAvg, m.EngagementScore, m.YawnsCount, t.overall),
			ActionItems: recommendations(m),
		}
	}

	return model.Insights{
		Shape:                  model.ShapeNarrative,
		Source:                 model.SourceFallback,
		OverallExperience:      t.overall,
		EmotionalState:         t.emotional,
		WorkMotivation:         t.motivation,
		ProfessionalAppearance: professionalTxt,
		AIObservations:         observations(m),
		Recommendations:        recommendations(m),
	}
}
