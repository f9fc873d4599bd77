package model

// FaceMetrics is the record produced by the facial-signal extractor.
// A record with FaceDetected=false carries zeroed signal fields.
type FaceMetrics struct {
	StressAvg        float64 `json:"stress_avg"`
	StressMax        float64 `json:"stress_max"`
	StressMin        float64 `json:"stress_min"`
	YawnsCount       int     `json:"yawns_count"`
	HeadPoseVariance float64 `json:"head_pose_variance"`
	EngagementScore  float64 `json:"engagement_score"`
	DurationSeconds  float64 `json:"duration_seconds"`
	FramesProcessed  int     `json:"frames_processed"`
	TotalFrames      int     `json:"total_frames"`
	FPS              float64 `json:"fps"`
	FaceDetected     bool    `json:"face_detected"`
	Degraded         bool    `json:"degraded,omitempty"`
	Error            string  `json:"error,omitempty"`
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// AudioMetrics is the record produced by the audio-signal extractor.
type AudioMetrics struct {
	Transcript          string             `json:"transcript"`
	WordCount           int                `json:"word_count"`
	SpeakingPaceWPM     float64            `json:"speaking_pace_wpm"`
	VoiceEnergy         float64            `json:"voice_energy"`
	PitchVariance       float64            `json:"pitch_variance"`
	PausesCount         int                `json:"pauses_count"`
	Sentiment           Sentiment          `json:"sentiment"`
	SentimentConfidence float64            `json:"sentiment_confidence"`
	Emotions            map[string]float64 `json:"emotions,omitempty"`
	DominantEmotion     string             `json:"dominant_emotion"`
	DurationSeconds     float64            `json:"duration_seconds"`
	HasAudio            bool               `json:"has_audio"`
	Degraded            bool               `json:"degraded,omitempty"`
	Error               string             `json:"error,omitempty"`
}

// Metrics merges both extractor records. The audio record is nested under
// the "audio" key of the facial record.
type Metrics struct {
	FaceMetrics
	Audio AudioMetrics `json:"audio"`
}

func NewMetrics(face FaceMetrics, audio AudioMetrics) Metrics {
	return Metrics{FaceMetrics: face, Audio: audio}
}
