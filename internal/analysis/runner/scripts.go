package runner

import (
	"context"
	"strconv"

	"github.com/sara-ai/checkin-service/internal/analysis"
)

// Landmarks runs the face mesh script. It prints {"frames": [[{x,y}...] | null, ...]}
// with one entry per sampled frame.
type Landmarks struct {
	cmd *Command
}

func NewLandmarks(python, script string) *Landmarks {
	return &Landmarks{cmd: NewCommand(python, script)}
}

func (l *Landmarks) Detect(ctx context.Context, path string, frameSkip int) ([]analysis.Landmarks, error) {
	var out struct {
		Frames []analysis.Landmarks `json:"frames"`
	}
	if err := l.cmd.RunJSON(ctx, &out, path, "--frame-skip", strconv.Itoa(frameSkip)); err != nil {
		return nil, err
	}
	return out.Frames, nil
}

// Transcriber runs the speech-to-text script. It prints {"segments": [{start, end, text}]}.
type Transcriber struct {
	cmd *Command
}

func NewTranscriber(python, script string) *Transcriber {
	return &Transcriber{cmd: NewCommand(python, script)}
}

func (t *Transcriber) Transcribe(ctx context.Context, path string) ([]analysis.Segment, error) {
	var out struct {
		Segments []analysis.Segment `json:"segments"`
	}
	if err := t.cmd.RunJSON(ctx, &out, path); err != nil {
		return nil, err
	}
	return out.Segments, nil
}

// Acoustics runs the audio feature script. It prints {"rms": [...], "pitch": [...]}.
type Acoustics struct {
	cmd *Command
}

func NewAcoustics(python, script string) *Acoustics {
	return &Acoustics{cmd: NewCommand(python, script)}
}

func (a *Acoustics) Analyze(ctx context.Context, path string) (analysis.Acoustics, error) {
	var out analysis.Acoustics
	if err := a.cmd.RunJSON(ctx, &out, path); err != nil {
		return analysis.Acoustics{}, err
	}
	return out, nil
}

// Emotions runs the text emotion classifier. It prints {"label": score, ...}.
type Emotions struct {
	cmd *Command
}

func NewEmotions(python, script string) *Emotions {
	return &Emotions{cmd: NewCommand(python, script)}
}

func (e *Emotions) Classify(ctx context.Context, text string) (map[string]float64, error) {
	scores := map[string]float64{}
	if err := e.cmd.RunJSON(ctx, &scores, "--text", text); err != nil {
		return nil, err
	}
	return scores, nil
}
