package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sara-ai/checkin-service/internal/store/model"
	"github.com/sara-ai/checkin-service/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type FaceExtractor interface {
	Validate(ctx context.Context, path string) (MediaInfo, error)
	Extract(ctx context.Context, path string) (model.FaceMetrics, error)
}

// AudioExtractor never fails: a broken audio track yields a zeroed record.
type AudioExtractor interface {
	Extract(ctx context.Context, path string) model.AudioMetrics
}

// Provider owns the extractors and bounds how many model invocations run at
// the same time across all tasks. Each stage runs under its own deadline.
type Provider struct {
	face         FaceExtractor
	audio        AudioExtractor
	slots        *semaphore.Weighted
	stageTimeout time.Duration
}

func NewProvider(face FaceExtractor, audio AudioExtractor, maxConcurrent int64, stageTimeout time.Duration) *Provider {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Provider{
		face:         face,
		audio:        audio,
		slots:        semaphore.NewWeighted(maxConcurrent),
		stageTimeout: stageTimeout,
	}
}

// Validate probes the media without taking an extraction slot.
func (p *Provider) Validate(ctx context.Context, path string) (MediaInfo, error) {
	return p.face.Validate(ctx, path)
}

// Face runs the facial extractor. InvalidMediaError and cancellation of ctx
// are returned as errors; any other failure, including the stage deadline,
// degrades to a record with face_detected=false.
func (p *Provider) Face(ctx context.Context, path string) (model.FaceMetrics, error) {
	var result model.FaceMetrics

	err := p.withSlot(ctx, func(stageCtx context.Context) error {
		m, err := p.face.Extract(stageCtx, path)
		if err != nil {
			return err
		}
		result = m
		return nil
	})
	if err == nil {
		return result, nil
	}

	var invalid *InvalidMediaError
	if errors.As(err, &invalid) || ctx.Err() != nil {
		return model.FaceMetrics{}, err
	}

	zap.S().Named("analysis").Warnw("facial extraction degraded", "path", path, "error", err)
	metrics.IncreaseDegradedExtraction("face")
	return model.FaceMetrics{
		Degraded: true,
		Error:    fmt.Sprintf("facial analysis unavailable: %s", err),
	}, nil
}

// Audio runs the audio extractor. Only cancellation of ctx is returned as an
// error.
func (p *Provider) Audio(ctx context.Context, path string) (model.AudioMetrics, error) {
	var result model.AudioMetrics

	err := p.withSlot(ctx, func(stageCtx context.Context) error {
		result = p.audio.Extract(stageCtx, path)
		return stageCtx.Err()
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.AudioMetrics{}, err
		}
		zap.S().Named("analysis").Warnw("audio extraction degraded", "path", path, "error", err)
		result = EmptyAudio(fmt.Sprintf("audio analysis unavailable: %s", err))
	}

	if result.Degraded {
		metrics.IncreaseDegradedExtraction("audio")
	}
	return result, nil
}

func (p *Provider) withSlot(ctx context.Context, fn func(context.Context) error) error {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.slots.Release(1)

	stageCtx := ctx
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	return fn(stageCtx)
}

// EmptyAudio is the record of an audio track that could not be analyzed.
func EmptyAudio(reason string) model.AudioMetrics {
	return model.AudioMetrics{
		Sentiment: model.SentimentNeutral,
		HasAudio:  false,
		Degraded:  true,
		Error:     reason,
	}
}
