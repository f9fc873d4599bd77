package audio

import (
	"sort"
	"strings"

	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"github.com/thoas/go-funk"
)

const (
	neutralEmotion = "neutral"

	keywordConfidence = 0.75
	neutralConfidence = 0.65

	// below this the classifier label loses to a keyword match
	trustedConfidence = 0.75
	// above this the classifier label wins even against a keyword match
	certainConfidence = 0.95
)

func countMatches(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// sentiment compares keyword hits. One side has to lead by more than one hit.
// The confidence grows with the share of the leading side.
func sentiment(text string, lex Lexicon) (model.Sentiment, float64) {
	if text == "" {
		return model.SentimentNeutral, 0.5
	}

	lower := strings.ToLower(text)
	pos := countMatches(lower, lex.Positive)
	neg := countMatches(lower, lex.Negative)

	label := model.SentimentNeutral
	switch {
	case pos > neg+1:
		label = model.SentimentPositive
	case neg > pos+1:
		label = model.SentimentNegative
	}

	if pos+neg == 0 || label == model.SentimentNeutral {
		return label, 0.5
	}
	diff := pos - neg
	if diff < 0 {
		diff = -diff
	}
	return label, analysis.Round(0.5+0.5*float64(diff)/float64(pos+neg), 2)
}

// keywordEmotion is the lexicon fallback of the emotion classifier.
func keywordEmotion(text string, lex Lexicon) (string, float64) {
	lower := strings.ToLower(text)
	for _, e := range lex.Emotions {
		if countMatches(lower, e.Words) > 0 {
			return e.Emotion, keywordConfidence
		}
	}
	return neutralEmotion, neutralConfidence
}

// topEmotion returns the highest scored label, ties broken by name.
func topEmotion(scores map[string]float64) (string, float64) {
	if len(scores) == 0 {
		return neutralEmotion, 0
	}
	labels := funk.Keys(scores).([]string)
	sort.Strings(labels)

	best, bestScore := neutralEmotion, 0.0
	for _, l := range labels {
		if scores[l] > bestScore {
			best, bestScore = l, scores[l]
		}
	}
	return best, bestScore
}

// resolveEmotion prefers a keyword match unless the classifier is certain.
func resolveEmotion(classified string, confidence float64, text string, lex Lexicon) (string, float64) {
	kw, kwConf := keywordEmotion(text, lex)
	if confidence < trustedConfidence || (kw != neutralEmotion && confidence < certainConfidence) {
		return kw, kwConf
	}
	return classified, confidence
}

// TopEmotions ranks the distribution, highest first.
func TopEmotions(scores map[string]float64, n int) []string {
	if len(scores) == 0 {
		return nil
	}
	labels := funk.Keys(scores).([]string)
	sort.Slice(labels, func(i, j int) bool {
		if scores[labels[i]] == scores[labels[j]] {
			return labels[i] < labels[j]
		}
		return scores[labels[i]] > scores[labels[j]]
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}
