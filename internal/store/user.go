package store

import (
	"context"
	"errors"

	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type User interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Upsert(ctx context.Context, user model.User) error
}

type UserStore struct {
	db *gorm.DB
}

var _ User = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) User {
	return &UserStore{db: db}
}

func (u *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := u.getDB(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Upsert refreshes the profile claims of an identity. Empty names do not
// overwrite names that are already known.
func (u *UserStore) Upsert(ctx context.Context, user model.User) error {
	if user.Role == "" {
		user.Role = model.RoleEmployee
	}

	columns := []string{"email", "role", "updated_at"}
	if user.FirstName != "" {
		columns = append(columns, "first_name")
	}
	if user.LastName != "" {
		columns = append(columns, "last_name")
	}

	return u.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&user).Error
}

func (u *UserStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}
