package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"go.uber.org/zap"
)

var taskStatuses = []model.TaskStatus{
	model.TaskStatusQueued,
	model.TaskStatusProcessing,
	model.TaskStatusCompleted,
	model.TaskStatusFailed,
}

type taskStatsCollector struct {
	store        store.Store
	tasksByState *prometheus.Desc
}

// NewTaskStatsCollector exposes the number of stored tasks per status. The
// store is queried on every scrape.
func NewTaskStatsCollector(s store.Store) prometheus.Collector {
	return &taskStatsCollector{
		store: s,
		tasksByState: prometheus.NewDesc(
			fmt.Sprintf("%s_tasks_by_status", checkinPipeline),
			"Number of stored tasks by status.",
			[]string{"status"},
			prometheus.Labels{},
		),
	}
}

func (c *taskStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasksByState
}

// Collect implements Collector.
func (c *taskStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.Task().CountByStatus(ctx)
	if err != nil {
		zap.S().Named("task_collector").Errorf("failed to collect task statistics: %s", err)
		return
	}

	// every status is reported so dashboards see zeros instead of gaps
	for _, status := range taskStatuses {
		ch <- prometheus.MustNewConstMetric(c.tasksByState, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
}
