package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/events"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"github.com/sara-ai/checkin-service/internal/util"
	"github.com/sara-ai/checkin-service/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Progress reported at the start of each stage.
const (
	progressFace      = 10
	progressFaceDone  = 30
	progressAudio     = 40
	progressInsights  = 60
	progressPersisted = 75
	progressReport    = 85
	progressCleanup   = 95
	progressDone      = 100
)

type Extractors interface {
	Face(ctx context.Context, path string) (model.FaceMetrics, error)
	Audio(ctx context.Context, path string) (model.AudioMetrics, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, m model.Metrics, notes, employeeName string) model.Insights
}

type ReportRenderer interface {
	Render(ctx context.Context, checkIn model.CheckIn, employeeName, employeeEmail string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, kind string, payload any) error
}

// Orchestrator runs the analysis of one uploaded video from queued to a
// terminal state.
type Orchestrator struct {
	store       store.Store
	extractors  Extractors
	synthesizer Synthesizer
	reports     ReportRenderer
	events      EventPublisher
	cfg         config.PipelineConfig
	remove      func(path string) error
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(s store.Store, extractors Extractors, synthesizer Synthesizer, reports ReportRenderer, cfg config.PipelineConfig) *Orchestrator {
	if cfg.CleanupAttempts < 1 {
		cfg.CleanupAttempts = 1
	}
	if cfg.DefaultDisplayName == "" {
		cfg.DefaultDisplayName = "Employee"
	}
	return &Orchestrator{
		store:       s,
		extractors:  extractors,
		synthesizer: synthesizer,
		reports:     reports,
		cfg:         cfg,
		remove:      os.Remove,
		sleep:       sleepContext,
	}
}

func (o *Orchestrator) WithEvents(publisher EventPublisher) *Orchestrator {
	o.events = publisher
	return o
}

// WithRemover replaces the file deletion used for the source video.
func (o *Orchestrator) WithRemover(remove func(path string) error) *Orchestrator {
	o.remove = remove
	return o
}

func (o *Orchestrator) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Orchestrator {
	o.sleep = sleep
	return o
}

// outcome is what the post-commit stages produced.
type outcome struct {
	checkIn        *model.CheckIn
	metrics        model.Metrics
	insights       model.Insights
	reportRendered bool
	videoDeleted   bool
}

// Work implements Worker. Errors and panics before the check-in is persisted
// mark the task failed and keep the video. Later failures only degrade the
// result.
func (o *Orchestrator) Work(ctx context.Context, job Job) (err error) {
	logger := zap.S().Named("pipeline").With("task_id", job.TaskID)
	started := time.Now()

	var persisted bool
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("task panicked", "panic", r)
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil && !persisted {
			o.fail(ctx, job, err)
		}
	}()

	logger.Infow("processing started", "video", job.VideoPath)

	m, in, err := o.analyze(ctx, job)
	if err != nil {
		return err
	}

	checkIn, err := o.persist(ctx, job, m, in)
	if err != nil {
		return err
	}
	persisted = true

	out := outcome{checkIn: checkIn, metrics: m, insights: in}
	o.report(ctx, job, &out)
	o.cleanup(ctx, job, &out)

	if err := o.complete(ctx, job, out); err != nil {
		logger.Errorw("failed to mark task completed", "error", err)
		return err
	}

	metrics.ObserveStage("total", time.Since(started))
	logger.Infow("processing completed", "checkin_id", checkIn.ID, "insights", in.Source, "video_deleted", out.videoDeleted, "duration", time.Since(started))
	return nil
}

// analyze runs stages one to five.
func (o *Orchestrator) analyze(ctx context.Context, job Job) (model.Metrics, model.Insights, error) {
	if err := o.progress(ctx, job.TaskID, progressFace, "Analyzing facial signals..."); err != nil {
		return model.Metrics{}, model.Insights{}, err
	}

	stageStart := time.Now()
	face, err := o.extractors.Face(ctx, job.VideoPath)
	if err != nil {
		return model.Metrics{}, model.Insights{}, fmt.Errorf("facial analysis: %w", err)
	}
	metrics.ObserveStage("face", time.Since(stageStart))

	if err := o.progress(ctx, job.TaskID, progressFaceDone, "Facial analysis complete"); err != nil {
		return model.Metrics{}, model.Insights{}, err
	}
	if err := o.progress(ctx, job.TaskID, progressAudio, "Analyzing audio and transcript..."); err != nil {
		return model.Metrics{}, model.Insights{}, err
	}

	stageStart = time.Now()
	audio, err := o.extractors.Audio(ctx, job.VideoPath)
	if err != nil {
		return model.Metrics{}, model.Insights{}, fmt.Errorf("audio analysis: %w", err)
	}
	metrics.ObserveStage("audio", time.Since(stageStart))

	name := o.displayName(ctx, job.OwnerID)
	m := model.NewMetrics(face, audio)

	if err := o.progress(ctx, job.TaskID, progressInsights, "Generating insights..."); err != nil {
		return model.Metrics{}, model.Insights{}, err
	}

	stageStart = time.Now()
	in := o.synthesizer.Synthesize(ctx, m, job.Notes, name)
	metrics.ObserveStage("insights", time.Since(stageStart))

	return m, in, nil
}

// persist stores the check-in and moves the task to 75% in one transaction.
func (o *Orchestrator) persist(ctx context.Context, job Job, m model.Metrics, in model.Insights) (*model.CheckIn, error) {
	txCtx, err := o.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("saving check-in: %w", err)
	}

	checkIn, err := o.store.CheckIn().Create(txCtx, model.CheckIn{
		ID:         uuid.New(),
		OwnerID:    job.OwnerID,
		OwnerEmail: job.OwnerEmail,
		TaskID:     job.TaskID,
		Notes:      job.Notes,
		Metrics:    datatypes.NewJSONType(m),
		Insights:   datatypes.NewJSONType(in),
	})
	if err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("saving check-in: %w", err)
	}

	if _, err := o.store.Task().Update(txCtx, job.TaskID, store.TaskUpdate{
		Status:   model.TaskStatusProcessing,
		Progress: util.Ptr(progressPersisted),
		Message:  util.Ptr("Check-in saved"),
	}); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("saving check-in: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, fmt.Errorf("saving check-in: %w", err)
	}

	return checkIn, nil
}

func (o *Orchestrator) report(ctx context.Context, job Job, out *outcome) {
	logger := zap.S().Named("pipeline").With("task_id", job.TaskID)

	if err := o.progress(ctx, job.TaskID, progressReport, "Generating report..."); err != nil {
		logger.Warnw("failed to update progress", "error", err)
	}
	if o.reports == nil {
		return
	}

	stageStart := time.Now()
	location, err := o.renderSafely(ctx, *out.checkIn, o.displayName(ctx, job.OwnerID), o.email(ctx, job))
	if err != nil {
		logger.Errorw("report generation failed", "checkin_id", out.checkIn.ID, "error", err)
		metrics.IncreaseReportRender("failed")
		return
	}
	metrics.ObserveStage("report", time.Since(stageStart))

	if err := o.store.CheckIn().SetReportLocation(ctx, out.checkIn.ID, location); err != nil {
		logger.Errorw("failed to record report location", "checkin_id", out.checkIn.ID, "error", err)
		metrics.IncreaseReportRender("failed")
		return
	}

	out.checkIn.ReportLocation = &location
	out.reportRendered = true
	metrics.IncreaseReportRender("rendered")
}

func (o *Orchestrator) renderSafely(ctx context.Context, checkIn model.CheckIn, name, email string) (location string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panicked: %v", r)
		}
	}()
	return o.reports.Render(ctx, checkIn, name, email)
}

// cleanup deletes the source video. A missing file is not retried.
func (o *Orchestrator) cleanup(ctx context.Context, job Job, out *outcome) {
	logger := zap.S().Named("pipeline").With("task_id", job.TaskID)

	if err := o.progress(ctx, job.TaskID, progressCleanup, "Cleaning up..."); err != nil {
		logger.Warnw("failed to update progress", "error", err)
	}

	for attempt := 1; attempt <= o.cfg.CleanupAttempts; attempt++ {
		err := o.remove(job.VideoPath)
		if err == nil {
			out.videoDeleted = true
			metrics.IncreaseVideoCleanup("deleted")
			return
		}
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnw("video already gone", "video", job.VideoPath)
			metrics.IncreaseVideoCleanup("missing")
			return
		}

		logger.Warnw("failed to delete video", "video", job.VideoPath, "attempt", attempt, "error", err)
		if attempt < o.cfg.CleanupAttempts {
			if err := o.sleep(ctx, o.cfg.CleanupDelay); err != nil {
				break
			}
		}
	}

	logger.Errorw("video kept after failed deletions", "video", job.VideoPath)
	metrics.IncreaseVideoCleanup("failed")
}

func (o *Orchestrator) complete(ctx context.Context, job Job, out outcome) error {
	message := "Video processing complete, video deleted"
	if !out.videoDeleted {
		message = "Video processing complete, video retained"
	}

	_, err := o.store.Task().Update(context.WithoutCancel(ctx), job.TaskID, store.TaskUpdate{
		Status:   model.TaskStatusCompleted,
		Progress: util.Ptr(progressDone),
		Message:  &message,
		Result: &model.TaskResult{
			CheckInID:    out.checkIn.ID,
			Metrics:      out.metrics,
			VideoDeleted: out.videoDeleted,
		},
	})
	if err != nil {
		return err
	}

	metrics.IncreaseTaskOutcome(string(model.TaskStatusCompleted))
	o.publish(ctx, events.TaskCompletedKind, events.TaskCompletedEvent{
		TaskID:         job.TaskID.String(),
		CheckInID:      out.checkIn.ID.String(),
		OwnerID:        job.OwnerID,
		InsightsSource: string(out.insights.Source),
		Degraded:       out.metrics.Degraded || out.metrics.Audio.Degraded,
		ReportRendered: out.reportRendered,
		VideoDeleted:   out.videoDeleted,
	})
	return nil
}

// fail records the error on the task. The video stays on disk for a retry.
// Only the Error column carries the server path; the message is user facing.
func (o *Orchestrator) fail(ctx context.Context, job Job, cause error) {
	logger := zap.S().Named("pipeline").With("task_id", job.TaskID)
	logger.Errorw("processing failed", "error", cause, "video", job.VideoPath)

	message := fmt.Sprintf("Error processing video: %s", publicCause(cause, job.VideoPath))
	errText := fmt.Sprintf("%s (video retained at %s)", cause, job.VideoPath)

	if _, err := o.store.Task().Update(context.WithoutCancel(ctx), job.TaskID, store.TaskUpdate{
		Status:  model.TaskStatusFailed,
		Message: &message,
		Error:   &errText,
	}); err != nil {
		logger.Errorw("failed to mark task failed", "error", err)
		return
	}

	metrics.IncreaseTaskOutcome(string(model.TaskStatusFailed))
	o.publish(ctx, events.TaskFailedKind, events.TaskFailedEvent{
		TaskID:  job.TaskID.String(),
		OwnerID: job.OwnerID,
		Message: message,
	})
}

// publicCause strips the storage directory from the cause text.
func publicCause(cause error, videoPath string) string {
	text := cause.Error()
	if videoPath == "" {
		return text
	}
	return strings.ReplaceAll(text, videoPath, filepath.Base(videoPath))
}

func (o *Orchestrator) progress(ctx context.Context, id uuid.UUID, progress int, message string) error {
	_, err := o.store.Task().Update(ctx, id, store.TaskUpdate{
		Status:   model.TaskStatusProcessing,
		Progress: &progress,
		Message:  &message,
	})
	return err
}

// displayName is best effort: any lookup failure yields the placeholder.
func (o *Orchestrator) displayName(ctx context.Context, ownerID string) string {
	user, err := o.store.User().Get(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			zap.S().Named("pipeline").Warnw("failed to resolve display name", "owner_id", ownerID, "error", err)
		}
		return o.cfg.DefaultDisplayName
	}
	if name := user.DisplayName(); name != "" {
		return name
	}
	return o.cfg.DefaultDisplayName
}

func (o *Orchestrator) email(ctx context.Context, job Job) string {
	if job.OwnerEmail != "" {
		return job.OwnerEmail
	}
	if user, err := o.store.User().Get(ctx, job.OwnerID); err == nil {
		return user.Email
	}
	return ""
}

func (o *Orchestrator) publish(ctx context.Context, kind string, payload any) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(context.WithoutCancel(ctx), kind, payload); err != nil {
		zap.S().Named("pipeline").Warnw("failed to publish event", "kind", kind, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
