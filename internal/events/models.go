package events

import (
	"encoding/json"
	"time"
)

const (
	TaskCompletedKind string = "checkin.task.completed"
	TaskFailedKind    string = "checkin.task.failed"
	TaskReapedKind    string = "checkin.task.reaped"

	eventSource string = "checkin-service"
)

// Event is the envelope written to the topic.
type Event struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Source string          `json:"source"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

type TaskCompletedEvent struct {
	TaskID         string `json:"task_id"`
	CheckInID      string `json:"checkin_id"`
	OwnerID        string `json:"owner_id"`
	InsightsSource string `json:"insights_source"`
	Degraded       bool   `json:"degraded"`
	ReportRendered bool   `json:"report_rendered"`
	VideoDeleted   bool   `json:"video_deleted"`
}

type TaskFailedEvent struct {
	TaskID  string `json:"task_id"`
	OwnerID string `json:"owner_id"`
	Message string `json:"message"`
}
