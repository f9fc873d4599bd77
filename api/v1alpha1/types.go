package v1alpha1

import (
	"time"

	"github.com/google/uuid"
	"github.com/sara-ai/checkin-service/internal/store/model"
)

type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Error is the body of every non 2xx response.
type Error struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// UploadAccepted is returned by POST /api/v1/checkins.
type UploadAccepted struct {
	TaskID  uuid.UUID  `json:"task_id"`
	Status  TaskStatus `json:"status"`
	Message string     `json:"message"`
}

type TaskResult struct {
	CheckInID    uuid.UUID     `json:"checkin_id"`
	Metrics      model.Metrics `json:"metrics"`
	VideoDeleted bool          `json:"video_deleted"`
}

type Task struct {
	TaskID    uuid.UUID   `json:"task_id"`
	Status    TaskStatus  `json:"status"`
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Result    *TaskResult `json:"result,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type CheckIn struct {
	ID         uuid.UUID      `json:"id"`
	TaskID     uuid.UUID      `json:"task_id"`
	OwnerID    string         `json:"owner_id"`
	OwnerEmail string         `json:"owner_email"`
	Notes      string         `json:"notes"`
	Metrics    model.Metrics  `json:"metrics"`
	Insights   model.Insights `json:"insights"`
	HasReport  bool           `json:"has_report"`
	ReportURL  *string        `json:"report_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type CheckInList struct {
	CheckIns   []CheckIn `json:"checkins"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
	HasNext    bool      `json:"has_next"`
	HasPrev    bool      `json:"has_prev"`
}

type Health struct {
	Status string `json:"status"`
}
