package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CheckIn struct {
	ID             uuid.UUID                    `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	OwnerID        string                       `gorm:"column:owner_id;type:VARCHAR(255);not null;index:checkins_owner_id_idx"`
	OwnerEmail     string                       `gorm:"column:owner_email;type:VARCHAR(255)"`
	TaskID         uuid.UUID                    `gorm:"column:task_id;type:VARCHAR(255);not null;uniqueIndex:checkins_task_id_key"`
	Notes          string                       `gorm:"column:notes"`
	Metrics        datatypes.JSONType[Metrics]  `gorm:"column:metrics;not null"`
	Insights       datatypes.JSONType[Insights] `gorm:"column:insights;not null"`
	ReportLocation *string                      `gorm:"column:report_location"`
	CreatedAt      time.Time                    `gorm:"not null"`
	UpdatedAt      time.Time                    `gorm:"not null"`
}

func (CheckIn) TableName() string {
	return "checkins"
}

type CheckInList []CheckIn
