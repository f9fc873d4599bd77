package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskUpdate describes one transition of a task. Nil fields are left untouched.
type TaskUpdate struct {
	Status   model.TaskStatus
	Progress *int
	Message  *string
	Error    *string
	Result   *model.TaskResult
}

type Task interface {
	Create(ctx context.Context, task model.Task) (*model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter *TaskQueryFilter) (model.TaskList, error)
	Update(ctx context.Context, id uuid.UUID, update TaskUpdate) (*model.Task, error)
	CountByStatus(ctx context.Context) (map[model.TaskStatus]int64, error)
}

type TaskStore struct {
	db *gorm.DB
}

// Make sure we conform to Task interface
var _ Task = (*TaskStore)(nil)

func NewTaskStore(db *gorm.DB) Task {
	return &TaskStore{db: db}
}

func (s *TaskStore) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	if task.Status == "" {
		task.Status = model.TaskStatusQueued
	}
	result := s.getDB(ctx).Create(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating task: %w", result.Error)
	}
	return &task, nil
}

func (s *TaskStore) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := s.getDB(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying task: %w", result.Error)
	}
	return &task, nil
}

func (s *TaskStore) List(ctx context.Context, filter *TaskQueryFilter) (model.TaskList, error) {
	var tasks model.TaskList
	tx := s.getDB(ctx).Model(&tasks).Order("created_at DESC")
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies the transition in a single conditional statement. The row is
// only touched when its current status allows the new one and, when progress
// is set, the stored progress does not exceed it.
func (s *TaskStore) Update(ctx context.Context, id uuid.UUID, update TaskUpdate) (*model.Task, error) {
	from := update.Status.AllowedFrom()
	if len(from) == 0 {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, update.Status)
	}

	values := map[string]any{
		"status":     update.Status,
		"updated_at": time.Now(),
	}
	if update.Message != nil {
		values["message"] = *update.Message
	}
	if update.Error != nil {
		values["error"] = *update.Error
	}
	if update.Result != nil {
		values["result"] = datatypes.NewJSONType(*update.Result)
	}

	tx := s.getDB(ctx).Model(&model.Task{}).Where("id = ? AND status IN ?", id, from)
	if update.Progress != nil {
		values["progress"] = *update.Progress
		tx = tx.Where("progress <= ?", *update.Progress)
	}

	result := tx.Updates(values)
	if result.Error != nil {
		return nil, fmt.Errorf("updating task: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s (progress %d) to %s", ErrInvalidTransition, current.Status, current.Progress, update.Status)
	}

	return s.Get(ctx, id)
}

func (s *TaskStore) CountByStatus(ctx context.Context) (map[model.TaskStatus]int64, error) {
	var rows []struct {
		Status model.TaskStatus
		Total  int64
	}
	err := s.getDB(ctx).Model(&model.Task{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.TaskStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (s *TaskStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
