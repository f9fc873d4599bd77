package video

import (
	"math"

	"github.com/sara-ai/checkin-service/internal/analysis"
)

// face mesh indices
var (
	leftEye  = [6]int{33, 160, 158, 133, 153, 144}
	rightEye = [6]int{362, 385, 387, 263, 373, 380}
)

const (
	noseTip       = 4
	chin          = 152
	leftEyeOuter  = 33
	rightEyeOuter = 263
	mouthTop      = 13
	mouthBottom   = 14
	leftBrow      = 70
	rightBrow     = 300
	leftEyeTop    = 159
	rightEyeTop   = 386

	// highest index read by the signal functions
	minLandmarks = 388
)

func distance(a, b analysis.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// eyeAspectRatio is (|p1-p5| + |p2-p4|) / (2|p0-p3|) over the six eye
// points. A closed eye gives a low ratio.
func eyeAspectRatio(lm analysis.Landmarks, eye [6]int) float64 {
	horizontal := distance(lm[eye[0]], lm[eye[3]])
	if horizontal == 0 {
		return 0
	}
	v1 := distance(lm[eye[1]], lm[eye[5]])
	v2 := distance(lm[eye[2]], lm[eye[4]])
	return (v1 + v2) / (2 * horizontal)
}

func averageEAR(lm analysis.Landmarks) float64 {
	return (eyeAspectRatio(lm, leftEye) + eyeAspectRatio(lm, rightEye)) / 2
}

// headPose returns yaw and pitch proxies scaled by 100.
func headPose(lm analysis.Landmarks) (yaw, pitch float64) {
	eyeCenterX := (lm[leftEyeOuter].X + lm[rightEyeOuter].X) / 2
	yaw = (lm[noseTip].X - eyeCenterX) * 100
	pitch = (lm[noseTip].Y - lm[chin].Y) * 100
	return yaw, pitch
}

// stressScore combines mouth openness and brow raise into a 0-100 proxy.
func stressScore(lm analysis.Landmarks) float64 {
	mouthOpenness := math.Abs(lm[mouthTop].Y - lm[mouthBottom].Y)
	leftRaise := math.Abs(lm[leftBrow].Y - lm[leftEyeTop].Y)
	rightRaise := math.Abs(lm[rightBrow].Y - lm[rightEyeTop].Y)
	avgRaise := (leftRaise + rightRaise) / 2

	return math.Min(100, mouthOpenness*300+avgRaise*200)
}

// variance is the population variance.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(values))
}

// engagement maps head pose variance to 0-100.
func engagement(headPoseVariance float64) float64 {
	return math.Max(0, 100-10*headPoseVariance)
}

// frameSkip decimates the stream to roughly targetFPS samples per second.
func frameSkip(fps, targetFPS float64) int {
	if targetFPS <= 0 {
		return 1
	}
	skip := int(fps / targetFPS)
	if skip < 1 {
		return 1
	}
	return skip
}

// yawnCounter counts runs of low eye aspect ratio. Every patience consecutive
// samples below threshold count one event and restart the run.
type yawnCounter struct {
	threshold   float64
	patience    int
	consecutive int
	count       int
}

func newYawnCounter() *yawnCounter {
	return &yawnCounter{threshold: 0.20, patience: 3}
}

func (y *yawnCounter) observe(ear float64) {
	if ear >= y.threshold {
		y.consecutive = 0
		return
	}
	y.consecutive++
	if y.consecutive >= y.patience {
		y.count++
		y.consecutive = 0
	}
}
