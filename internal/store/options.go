package store

import (
	"time"

	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

func (b *BaseQuerier) apply(tx *gorm.DB) *gorm.DB {
	if b == nil {
		return tx
	}
	for _, fn := range b.QueryFn {
		tx = fn(tx)
	}
	return tx
}

type TaskQueryFilter struct {
	BaseQuerier
}

func NewTaskQueryFilter() *TaskQueryFilter {
	return &TaskQueryFilter{}
}

func (f *TaskQueryFilter) ByOwner(ownerID string) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("owner_id = ?", ownerID)
	})
	return f
}

func (f *TaskQueryFilter) ByStatus(status ...model.TaskStatus) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", status)
	})
	return f
}

// UpdatedBefore keeps tasks whose last transition is older than t.
func (f *TaskQueryFilter) UpdatedBefore(t time.Time) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("updated_at < ?", t)
	})
	return f
}

type CheckInQueryFilter struct {
	BaseQuerier
}

func NewCheckInQueryFilter() *CheckInQueryFilter {
	return &CheckInQueryFilter{}
}

func (f *CheckInQueryFilter) ByOwner(ownerID string) *CheckInQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("owner_id = ?", ownerID)
	})
	return f
}

func (f *CheckInQueryFilter) ByTaskID(taskID string) *CheckInQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("task_id = ?", taskID)
	})
	return f
}

type CheckInQueryOptions struct {
	BaseQuerier
}

func NewCheckInQueryOptions() *CheckInQueryOptions {
	return &CheckInQueryOptions{}
}

// WithPage selects the page-th page (1-based) of size pageSize.
func (o *CheckInQueryOptions) WithPage(page, pageSize int) *CheckInQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Offset((page - 1) * pageSize).Limit(pageSize)
	})
	return o
}
