package model

type InsightsShape string

const (
	ShapeNarrative InsightsShape = "narrative"
	ShapeSummary   InsightsShape = "summary"
)

type InsightsSource string

const (
	SourceModel    InsightsSource = "model"
	SourceFallback InsightsSource = "fallback"
)

// Insights is the structured output of the synthesizer. Narrative fields are
// set for ShapeNarrative, Summary and ActionItems for ShapeSummary.
type Insights struct {
	Shape                  InsightsShape  `json:"shape"`
	Source                 InsightsSource `json:"source"`
	OverallExperience      string         `json:"overall_experience,omitempty"`
	EmotionalState         string         `json:"emotional_state,omitempty"`
	WorkMotivation         string         `json:"work_motivation,omitempty"`
	ProfessionalAppearance string         `json:"professional_appearance,omitempty"`
	AIObservations         string         `json:"ai_observations,omitempty"`
	Recommendations        []string       `json:"recommendations,omitempty"`
	Summary                string         `json:"summary,omitempty"`
	ActionItems            []string       `json:"action_items,omitempty"`
}

// Valid reports whether every field of the shape is populated.
func (i Insights) Valid() bool {
	switch i.Shape {
	case ShapeNarrative:
		return i.OverallExperience != "" &&
			i.EmotionalState != "" &&
			i.WorkMotivation != "" &&
			i.ProfessionalAppearance != "" &&
			i.AIObservations != "" &&
			len(i.Recommendations) > 0
	case ShapeSummary:
		return i.Summary != "" && len(i.ActionItems) > 0
	default:
		return false
	}
}
