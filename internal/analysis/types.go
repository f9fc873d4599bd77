package analysis

import "math"

// MediaInfo holds the container properties read before any frame is decoded.
type MediaInfo struct {
	FPS             float64
	TotalFrames     int
	DurationSeconds float64
	HasAudio        bool
}

// Point is a normalized landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks are the face mesh points of one sampled frame. A nil value means
// no face was found in that frame.
type Landmarks []Point

// Segment is one transcribed span of speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Acoustics are the raw per-window features of the audio track. Pitch only
// holds voiced windows.
type Acoustics struct {
	RMS   []float64 `json:"rms"`
	Pitch []float64 `json:"pitch"`
}

// Round keeps the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
