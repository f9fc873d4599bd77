package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/gorm"
)

type CheckIn interface {
	Create(ctx context.Context, checkin model.CheckIn) (*model.CheckIn, error)
	Get(ctx context.Context, id uuid.UUID) (*model.CheckIn, error)
	List(ctx context.Context, filter *CheckInQueryFilter, opts *CheckInQueryOptions) (model.CheckInList, error)
	Count(ctx context.Context, filter *CheckInQueryFilter) (int64, error)
	SetReportLocation(ctx context.Context, id uuid.UUID, location string) error
}

type CheckInStore struct {
	db *gorm.DB
}

// Make sure we conform to CheckIn interface
var _ CheckIn = (*CheckInStore)(nil)

func NewCheckInStore(db *gorm.DB) CheckIn {
	return &CheckInStore{db: db}
}

// Create inserts the check-in. A second check-in for the same task fails with ErrDuplicateKey.
func (c *CheckInStore) Create(ctx context.Context, checkin model.CheckIn) (*model.CheckIn, error) {
	if checkin.ID == uuid.Nil {
		checkin.ID = uuid.New()
	}
	result := c.getDB(ctx).Create(&checkin)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating checkin: %w", result.Error)
	}
	return &checkin, nil
}

func (c *CheckInStore) Get(ctx context.Context, id uuid.UUID) (*model.CheckIn, error) {
	var checkin model.CheckIn
	result := c.getDB(ctx).First(&checkin, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &checkin, nil
}

func (c *CheckInStore) List(ctx context.Context, filter *CheckInQueryFilter, opts *CheckInQueryOptions) (model.CheckInList, error) {
	var checkins model.CheckInList
	tx := c.getDB(ctx).Model(&checkins).Order("created_at DESC")
	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	}

	if err := tx.Find(&checkins).Error; err != nil {
		return nil, err
	}
	return checkins, nil
}

func (c *CheckInStore) Count(ctx context.Context, filter *CheckInQueryFilter) (int64, error) {
	var total int64
	tx := c.getDB(ctx).Model(&model.CheckIn{})
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (c *CheckInStore) SetReportLocation(ctx context.Context, id uuid.UUID, location string) error {
	result := c.getDB(ctx).Model(&model.CheckIn{}).Where("id = ?", id).Updates(map[string]any{
		"report_location": location,
		"updated_at":      time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (c *CheckInStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db.WithContext(ctx)
}
