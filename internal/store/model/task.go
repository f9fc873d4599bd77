package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// AllowedFrom lists the states a task may be in when moving to s.
func (s TaskStatus) AllowedFrom() []TaskStatus {
	switch s {
	case TaskStatusQueued:
		return []TaskStatus{TaskStatusQueued}
	case TaskStatusProcessing:
		return []TaskStatus{TaskStatusQueued, TaskStatusProcessing}
	case TaskStatusCompleted:
		return []TaskStatus{TaskStatusProcessing}
	case TaskStatusFailed:
		return []TaskStatus{TaskStatusQueued, TaskStatusProcessing}
	default:
		return nil
	}
}

type TaskResult struct {
	CheckInID    uuid.UUID `json:"checkin_id"`
	Metrics      Metrics   `json:"metrics"`
	VideoDeleted bool      `json:"video_deleted"`
}

type Task struct {
	ID         uuid.UUID                       `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	OwnerID    string                          `gorm:"column:owner_id;type:VARCHAR(255);not null;index:tasks_owner_id_idx"`
	OwnerEmail string                          `gorm:"column:owner_email;type:VARCHAR(255)"`
	Status     TaskStatus                      `gorm:"column:status;type:VARCHAR(32);not null;index:tasks_status_idx"`
	Progress   int                             `gorm:"column:progress;not null;default:0"`
	Message    string                          `gorm:"column:message"`
	Error      *string                         `gorm:"column:error"`
	VideoPath  string                          `gorm:"column:video_path"`
	Result     *datatypes.JSONType[TaskResult] `gorm:"column:result"`
	CreatedAt  time.Time                       `gorm:"not null"`
	UpdatedAt  time.Time                       `gorm:"not null"`
}

type TaskList []Task

func (t Task) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}
