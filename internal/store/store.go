package store

import (
	"context"

	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Task() Task
	CheckIn() CheckIn
	User() User
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db      *gorm.DB
	task    Task
	checkin CheckIn
	user    User
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:      db,
		task:    NewTaskStore(db),
		checkin: NewCheckInStore(db),
		user:    NewUserStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Task() Task {
	return s.task
}

func (s *DataStore) CheckIn() CheckIn {
	return s.checkin
}

func (s *DataStore) User() User {
	return s.user
}

// InitialMigration creates the schema from the models. Postgres deployments
// run the goose migrations instead; this path serves sqlite.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.User{}, &model.Task{}, &model.CheckIn{})
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
