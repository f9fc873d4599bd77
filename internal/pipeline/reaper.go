package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/events"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"github.com/sara-ai/checkin-service/pkg/metrics"
	"go.uber.org/zap"
)

const reapedMessage = "Error processing video: processing was interrupted"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type InFlightChecker interface {
	InFlight(id uuid.UUID) bool
}

// Reaper fails tasks left queued or processing by a previous process.
type Reaper struct {
	store      store.Store
	inFlight   InFlightChecker
	events     EventPublisher
	schedule   cron.Schedule
	staleAfter time.Duration
	cron       *cron.Cron
	now        func() time.Time
}

func NewReaper(s store.Store, inFlight InFlightChecker, cfg config.ReaperConfig) (*Reaper, error) {
	schedule, err := cronParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid reaper schedule %q: %w", cfg.Schedule, err)
	}
	return &Reaper{
		store:      s,
		inFlight:   inFlight,
		schedule:   schedule,
		staleAfter: cfg.StaleAfter,
		now:        time.Now,
	}, nil
}

func (r *Reaper) WithEvents(publisher EventPublisher) *Reaper {
	r.events = publisher
	return r
}

// Start reaps once and then on every tick of the schedule until Stop.
func (r *Reaper) Start(ctx context.Context) {
	r.run(ctx)

	r.cron = cron.New(cron.WithParser(cronParser))
	r.cron.Schedule(r.schedule, cron.FuncJob(func() { r.run(ctx) }))
	r.cron.Start()
}

func (r *Reaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reaper) run(ctx context.Context) {
	n, err := r.Reap(ctx)
	if err != nil {
		zap.S().Named("reaper").Errorw("failed to reap stale tasks", "error", err)
		return
	}
	if n > 0 {
		zap.S().Named("reaper").Infow("stale tasks marked failed", "count", n)
	}
}

// Reap marks every stale task that is not running here as failed. It
// returns how many tasks were changed.
func (r *Reaper) Reap(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.staleAfter)
	tasks, err := r.store.Task().List(ctx, store.NewTaskQueryFilter().
		ByStatus(model.TaskStatusQueued, model.TaskStatusProcessing).
		UpdatedBefore(cutoff))
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, task := range tasks {
		if r.inFlight != nil && r.inFlight.InFlight(task.ID) {
			continue
		}

		message := reapedMessage
		errText := fmt.Sprintf("no progress since %s (video retained at %s)", task.UpdatedAt.Format(time.RFC3339), task.VideoPath)
		if _, err := r.store.Task().Update(ctx, task.ID, store.TaskUpdate{
			Status:  model.TaskStatusFailed,
			Message: &message,
			Error:   &errText,
		}); err != nil {
			zap.S().Named("reaper").Warnw("failed to reap task", "task_id", task.ID, "error", err)
			continue
		}

		reaped++
		metrics.IncreaseTaskOutcome("reaped")
		if r.events != nil {
			if err := r.events.Publish(ctx, events.TaskReapedKind, events.TaskFailedEvent{
				TaskID:  task.ID.String(),
				OwnerID: task.OwnerID,
				Message: message,
			}); err != nil {
				zap.S().Named("reaper").Warnw("failed to publish event", "task_id", task.ID, "error", err)
			}
		}
	}

	return reaped, nil
}
