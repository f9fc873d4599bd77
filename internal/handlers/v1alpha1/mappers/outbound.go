package mappers

import (
	"fmt"

	api "github.com/sara-ai/checkin-service/api/v1alpha1"
	"github.com/sara-ai/checkin-service/internal/service"
	"github.com/sara-ai/checkin-service/internal/store/model"
)

func TaskToApi(t model.Task) api.Task {
	task := api.Task{
		TaskID:    t.ID,
		Status:    api.StringToTaskStatus(string(t.Status)),
		Progress:  t.Progress,
		Message:   t.Message,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	// result is only set once the task completed. The Error column stays
	// internal: it names the retained video on the server.
	if t.Status == model.TaskStatusCompleted && t.Result != nil {
		r := t.Result.Data()
		task.Result = &api.TaskResult{
			CheckInID:    r.CheckInID,
			Metrics:      r.Metrics,
			VideoDeleted: r.VideoDeleted,
		}
	}

	return task
}

func UploadAcceptedToApi(t model.Task) api.UploadAccepted {
	return api.UploadAccepted{
		TaskID:  t.ID,
		Status:  api.StringToTaskStatus(string(t.Status)),
		Message: t.Message,
	}
}

func CheckInToApi(c model.CheckIn) api.CheckIn {
	checkIn := api.CheckIn{
		ID:         c.ID,
		TaskID:     c.TaskID,
		OwnerID:    c.OwnerID,
		OwnerEmail: c.OwnerEmail,
		Notes:      c.Notes,
		Metrics:    c.Metrics.Data(),
		Insights:   c.Insights.Data(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}

	if c.ReportLocation != nil && *c.ReportLocation != "" {
		url := fmt.Sprintf("/api/v1/checkins/%s/report", c.ID)
		checkIn.HasReport = true
		checkIn.ReportURL = &url
	}

	return checkIn
}

func CheckInPageToApi(p service.CheckInPage) api.CheckInList {
	checkIns := make([]api.CheckIn, 0, len(p.CheckIns))
	for _, c := range p.CheckIns {
		checkIns = append(checkIns, CheckInToApi(c))
	}

	return api.CheckInList{
		CheckIns:   checkIns,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext,
		HasPrev:    p.HasPrev,
	}
}
