package audio

import (
	"context"
	"math"
	"strings"

	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"go.uber.org/zap"
)

const pauseGapSeconds = 1.0

type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]analysis.Segment, error)
}

type AcousticAnalyzer interface {
	Analyze(ctx context.Context, path string) (analysis.Acoustics, error)
}

// EmotionClassifier scores emotion labels of a text.
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) (map[string]float64, error)
}

type Extractor struct {
	transcriber Transcriber
	acoustics   AcousticAnalyzer
	emotions    EmotionClassifier
	lexicon     Lexicon
}

// NewExtractor builds the audio extractor. classifier may be nil, emotions
// then come from the lexicon only.
func NewExtractor(transcriber Transcriber, acoustics AcousticAnalyzer, classifier EmotionClassifier, lexicon Lexicon) *Extractor {
	return &Extractor{
		transcriber: transcriber,
		acoustics:   acoustics,
		emotions:    classifier,
		lexicon:     lexicon,
	}
}

func (e *Extractor) Extract(ctx context.Context, path string) model.AudioMetrics {
	segments, err := e.transcriber.Transcribe(ctx, path)
	if err != nil {
		zap.S().Named("audio").Errorw("transcription failed", "path", path, "error", err)
		return analysis.EmptyAudio(err.Error())
	}

	transcript := joinSegments(segments)
	words := len(strings.Fields(transcript))
	duration := speechDuration(segments)

	m := model.AudioMetrics{
		Transcript:      transcript,
		WordCount:       words,
		SpeakingPaceWPM: analysis.Round(pace(words, duration), 1),
		PausesCount:     pauses(segments),
		DurationSeconds: analysis.Round(duration, 2),
		HasAudio:        transcript != "",
	}

	if e.acoustics != nil {
		features, err := e.acoustics.Analyze(ctx, path)
		if err != nil {
			zap.S().Named("audio").Warnw("could not extract acoustic features", "path", path, "error", err)
		} else {
			m.VoiceEnergy = analysis.Round(mean(features.RMS), 3)
			m.PitchVariance = analysis.Round(stdDev(voiced(features.Pitch)), 2)
		}
	}

	m.Sentiment, m.SentimentConfidence = sentiment(transcript, e.lexicon)
	if m.HasAudio {
		m.Emotions, m.DominantEmotion = e.classify(ctx, transcript)
	} else {
		m.DominantEmotion = neutralEmotion
	}

	zap.S().Named("audio").Infow("analysis complete",
		"path", path, "words", m.WordCount, "pace_wpm", m.SpeakingPaceWPM, "sentiment", m.Sentiment)
	return m
}

// classify returns the emotion distribution and the dominant emotion. Without
// a usable classifier the lexicon match is the whole distribution.
func (e *Extractor) classify(ctx context.Context, text string) (map[string]float64, string) {
	if e.emotions != nil {
		scores, err := e.emotions.Classify(ctx, text)
		if err == nil && len(scores) > 0 {
			label, conf := topEmotion(scores)
			dominant, _ := resolveEmotion(strings.ToLower(label), conf, text, e.lexicon)

			distribution := make(map[string]float64, len(scores))
			for l, s := range scores {
				distribution[strings.ToLower(l)] = analysis.Round(s, 2)
			}
			return distribution, dominant
		}
		zap.S().Named("audio").Warnw("emotion classifier unavailable, using keywords", "error", err)
	}

	label, conf := keywordEmotion(text, e.lexicon)
	return map[string]float64{label: conf}, label
}

func joinSegments(segments []analysis.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func speechDuration(segments []analysis.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}

// pace is words per minute over the speech duration.
func pace(words int, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return float64(words) / duration * 60
}

func pauses(segments []analysis.Segment) int {
	n := 0
	for i := 1; i < len(segments); i++ {
		if segments[i].Start-segments[i-1].End > pauseGapSeconds {
			n++
		}
	}
	return n
}

func voiced(pitch []float64) []float64 {
	out := make([]float64, 0, len(pitch))
	for _, p := range pitch {
		if p > 0 {
			out = append(out, p)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}
