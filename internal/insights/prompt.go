package insights

import (
	"fmt"
	"strings"

	"github.com/sara-ai/checkin-service/internal/analysis/audio"
	"github.com/sara-ai/checkin-service/internal/store/model"
)

const (
	systemPrompt = "You are a compassionate AI wellness coach specializing in employee wellbeing. Your insights should be professional, supportive, and actionable."

	maxTranscriptChars = 300

	narrativeInstructions = `
Based on the analysis above, provide a comprehensive qualitative assessment in narrative form. Write as if you observed the employee personally. Focus on:

1. OVERALL_EXPERIENCE: How was their overall experience during this check-in? What was their general demeanor and state of mind? (2-3 sentences)

2. EMOTIONAL_STATE: What emotions were evident? How was their emotional well-being? Describe their mood and emotional presence. (2-3 sentences)

3. WORK_MOTIVATION: How motivated and engaged do they appear? What does their energy level suggest about their work motivation? (2-3 sentences)

4. PROFESSIONAL_APPEARANCE: Comment on their professional appearance and office ethics. How did they present themselves? (2-3 sentences)

5. AI_OBSERVATIONS: What specific behaviors, patterns, or signals did the AI analysis reveal? What predictions can be made about their current state? (2-3 sentences)

6. RECOMMENDATIONS: 3-5 specific, actionable recommendations based on observations.

Write in a professional, empathetic, narrative style. NO NUMBERS OR METRICS. Focus on qualitative observations and human insights.

Format as:
OVERALL_EXPERIENCE: [narrative description]
EMOTIONAL_STATE: [narrative description]
WORK_MOTIVATION: [narrative description]
PROFESSIONAL_APPEARANCE: [narrative description]
AI_OBSERVATIONS: [narrative description]
RECOMMENDATIONS:
- [recommendation 1]
- [recommendation 2]
- [recommendation 3]
`

	summaryInstructions = `
Based on the analysis above, write a short assessment of the check-in. The summary may refer to the key numbers when they matter.

Format as:
SUMMARY: [3-4 sentences]
ACTIONS:
- [action item 1]
- [action item 2]
- [action item 3]
`
)

// buildPrompt lists the metrics, the audio findings and the notes, followed
// by the format instructions of the shape.
func buildPrompt(shape model.InsightsShape, m model.Metrics, notes, employeeName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI wellness coach analyzing a daily check-in for %s.\n\n", employeeName)
	b.WriteString("Video Analysis Metrics:\n")
	fmt.Fprintf(&b, "- Stress Level (Average): %.1f%%\n", m.StressAvg)
	fmt.Fprintf(&b, "- Stress Level (Max): %.1f%%\n", m.StressMax)
	fmt.Fprintf(&b, "- Stress Level (Min): %.1f%%\n", m.StressMin)
	fmt.Fprintf(&b, "- Yawns Detected: %d\n", m.YawnsCount)
	fmt.Fprintf(&b, "- Engagement Score: %.1f%%\n", m.EngagementScore)
	fmt.Fprintf(&b, "- Head Pose Variance: %.2f\n", m.HeadPoseVariance)
	fmt.Fprintf(&b, "- Video Duration: %.1f seconds\n", m.DurationSeconds)
	fmt.Fprintf(&b, "- Face Detected: %t\n", m.FaceDetected)

	a := m.Audio
	if a.HasAudio && a.Transcript != "" {
		transcript := a.Transcript
		if len([]rune(transcript)) > maxTranscriptChars {
			transcript = string([]rune(transcript)[:maxTranscriptChars]) + "..."
		}

		b.WriteString("\nAudio Analysis:\n")
		fmt.Fprintf(&b, "- Transcript: %q\n", transcript)
		fmt.Fprintf(&b, "- Word Count: %d words\n", a.WordCount)
		fmt.Fprintf(&b, "- Speaking Pace: %.1f words/min (Normal: 120-150 wpm)\n", a.SpeakingPaceWPM)
		fmt.Fprintf(&b, "- Voice Energy: %.2f (0=quiet, 1=loud)\n", a.VoiceEnergy)
		fmt.Fprintf(&b, "- Pitch Variance: %.2f (higher = more stress in voice)\n", a.PitchVariance)
		fmt.Fprintf(&b, "- Hesitations/Pauses: %d long pauses\n", a.PausesCount)
		fmt.Fprintf(&b, "- Overall Sentiment: %s (confidence: %.2f)\n", a.Sentiment, a.SentimentConfidence)
		fmt.Fprintf(&b, "- Dominant Emotion: %s\n", a.DominantEmotion)

		if top := audio.TopEmotions(a.Emotions, 3); len(top) > 0 {
			parts := make([]string, 0, len(top))
			for _, e := range top {
				parts = append(parts, fmt.Sprintf("%s (%.2f)", e, a.Emotions[e]))
			}
			fmt.Fprintf(&b, "Top emotions: %s\n", strings.Join(parts, ", "))
		}
	}

	if notes != "" {
		fmt.Fprintf(&b, "\nEmployee's Notes: %s\n", notes)
	}

	if shape == model.ShapeSummary {
		b.WriteString(summaryInstructions)
	} else {
		b.WriteString(narrativeInstructions)
	}
	return b.String()
}
