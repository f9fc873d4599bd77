package audio

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Lexicon holds the keyword lists used for sentiment and for the emotion
// fallback. Emotion entries are checked in order, the first match wins.
type Lexicon struct {
	Positive []string       `json:"positive"`
	Negative []string       `json:"negative"`
	Emotions []EmotionWords `json:"emotions"`
}

type EmotionWords struct {
	Emotion string   `json:"emotion"`
	Words   []string `json:"words"`
}

func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"good", "great", "excited", "happy", "productive", "accomplished",
			"progress", "excellent", "amazing", "love", "enjoy", "smooth",
			"successful", "confident", "motivated", "energized", "focused",
		},
		Negative: []string{
			"stressed", "tired", "blocked", "frustrated", "difficult", "problem",
			"issue", "confused", "stuck", "worried", "anxious", "overwhelmed",
			"exhausted", "struggling", "concerned", "challenging", "hard",
		},
		Emotions: []EmotionWords{
			{Emotion: "anger", Words: []string{"stress", "chillaya", "daanta", "tension", "gussa", "angry", "yelled", "maar", "killing", "frustrated"}},
			{Emotion: "sadness", Words: []string{"sad", "udas", "depressed", "dukhi", "rona", "cry", "padhai nahi", "upset"}},
			{Emotion: "happy", Words: []string{"khush", "happy", "mast", "mazaa", "accha", "great", "amazing", "achha", "feeling good", "badhiya"}},
			{Emotion: "fear", Words: []string{"dar", "scared", "darr", "exam", "test", "deadline", "fail", "worried"}},
		},
	}
}

// LoadLexicon reads a YAML lexicon. An empty path returns the default one.
func LoadLexicon(path string) (Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("reading lexicon: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parsing lexicon %s: %w", path, err)
	}
	if len(lex.Positive) == 0 || len(lex.Negative) == 0 {
		return Lexicon{}, fmt.Errorf("lexicon %s needs positive and negative words", path)
	}
	return lex, nil
}
