package video

import (
	"context"
	"slices"

	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"go.uber.org/zap"
)

type Prober interface {
	Probe(ctx context.Context, path string) (analysis.MediaInfo, error)
}

// LandmarkDetector returns one entry per sampled frame, nil when the frame
// has no face. Frames are sampled every frameSkip frames.
type LandmarkDetector interface {
	Detect(ctx context.Context, path string, frameSkip int) ([]analysis.Landmarks, error)
}

type Extractor struct {
	prober     Prober
	detector   LandmarkDetector
	minSeconds float64
	maxSeconds float64
	targetFPS  float64
}

func NewExtractor(prober Prober, detector LandmarkDetector, minSeconds, maxSeconds, targetFPS float64) *Extractor {
	return &Extractor{
		prober:     prober,
		detector:   detector,
		minSeconds: minSeconds,
		maxSeconds: maxSeconds,
		targetFPS:  targetFPS,
	}
}

// Validate reads the container properties and checks the duration bounds.
func (e *Extractor) Validate(ctx context.Context, path string) (analysis.MediaInfo, error) {
	info, err := e.prober.Probe(ctx, path)
	if err != nil {
		return analysis.MediaInfo{}, analysis.NewInvalidMediaError("Could not open video: %s", err)
	}

	if info.DurationSeconds <= 0 && info.FPS > 0 {
		info.DurationSeconds = float64(info.TotalFrames) / info.FPS
	}

	if info.DurationSeconds > e.maxSeconds {
		return info, analysis.NewInvalidMediaError("Video too long (%.1fs). Maximum allowed: %gs", info.DurationSeconds, e.maxSeconds)
	}
	if info.DurationSeconds < e.minSeconds {
		return info, analysis.NewInvalidMediaError("Video too short (%.1fs). Minimum required: %gs", info.DurationSeconds, e.minSeconds)
	}
	if info.FPS <= 0 || info.TotalFrames <= 0 {
		return info, analysis.NewInvalidMediaError("Invalid video: unable to read video properties")
	}

	return info, nil
}

func (e *Extractor) Extract(ctx context.Context, path string) (model.FaceMetrics, error) {
	info, err := e.Validate(ctx, path)
	if err != nil {
		return model.FaceMetrics{}, err
	}

	skip := frameSkip(info.FPS, e.targetFPS)
	frames, err := e.detector.Detect(ctx, path, skip)
	if err != nil {
		return model.FaceMetrics{}, err
	}

	m := summarize(info, frames)
	zap.S().Named("video").Infow("analysis complete",
		"path", path, "frames_processed", m.FramesProcessed, "total_frames", m.TotalFrames,
		"stress", m.StressAvg, "yawns", m.YawnsCount, "engagement", m.EngagementScore)
	return m, nil
}

// summarize aggregates the per-frame signals. Frames without a face or with
// an incomplete mesh are skipped.
func summarize(info analysis.MediaInfo, frames []analysis.Landmarks) model.FaceMetrics {
	m := model.FaceMetrics{
		DurationSeconds: analysis.Round(info.DurationSeconds, 2),
		TotalFrames:     info.TotalFrames,
		FPS:             analysis.Round(info.FPS, 2),
	}

	var (
		stress  []float64
		yaws    []float64
		pitches []float64
		yawns   = newYawnCounter()
	)

	for _, lm := range frames {
		if len(lm) < minLandmarks {
			continue
		}
		yawns.observe(averageEAR(lm))

		yaw, pitch := headPose(lm)
		yaws = append(yaws, yaw)
		pitches = append(pitches, pitch)

		stress = append(stress, stressScore(lm))
	}

	if len(stress) == 0 {
		return m
	}

	var sum float64
	for _, s := range stress {
		sum += s
	}
	poseVariance := variance(yaws) + variance(pitches)

	m.FaceDetected = true
	m.FramesProcessed = len(stress)
	m.StressAvg = analysis.Round(sum/float64(len(stress)), 2)
	m.StressMax = analysis.Round(slices.Max(stress), 2)
	m.StressMin = analysis.Round(slices.Min(stress), 2)
	m.YawnsCount = yawns.count
	m.HeadPoseVariance = analysis.Round(poseVariance, 2)
	m.EngagementScore = analysis.Round(engagement(poseVariance), 2)
	return m
}
