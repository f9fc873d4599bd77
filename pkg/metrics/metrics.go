package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	checkinPipeline = "checkin_pipeline"

	tasksTotal           = "tasks_total"
	stageDurationSeconds = "stage_duration_seconds"
	extractionDegraded   = "extraction_degraded_total"
	insightsSourceTotal  = "insights_source_total"
	reportRenderTotal    = "report_render_total"
	videoCleanupTotal    = "video_cleanup_total"
	uploadsRejectedTotal = "uploads_rejected_total"

	// Labels
	outcomeLabel   = "outcome"
	stageLabel     = "stage"
	extractorLabel = "extractor"
	sourceLabel    = "source"
	stateLabel     = "state"
	reasonLabel    = "reason"
)

var tasksTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: checkinPipeline,
		Name:      tasksTotal,
		Help:      "number of tasks that reached a terminal state",
	},
	[]string{outcomeLabel},
)

var stageDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: checkinPipeline,
		Name:      stageDurationSeconds,
		Help:      "time spent in each pipeline stage",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	},
	[]string{stageLabel},
)

var extractionDegradedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: checkinPipeline,
		Name:      extractionDegraded,
		Help:      "number of signal extractions that returned a degraded record",
	},
	[]string{extractorLabel},
)

var insightsSourceMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: checkinPipeline,
		Name:      insightsSourceTotal,
		Help:      "number of insights produced by the remote model or the local generator",
	},
	[]string{sourceLabel},
)

var reportRenderMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: checkinPipeline,
		Name:      reportRenderTotal,
		Help:      "number of report renders by state",
	},
	[]string{stateLabel},
)

var videoCleanupMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: checkinPipeline,
		Name:      videoCleanupTotal,
		Help:      "number of source video deletions by state",
	},
	[]string{stateLabel},
)

var uploadsRejectedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: checkinPipeline,
		Name:      uploadsRejectedTotal,
		Help:      "number of uploads rejected before a task was created",
	},
	[]string{reasonLabel},
)

func IncreaseTaskOutcome(outcome string) {
	tasksTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func ObserveStage(stage string, d time.Duration) {
	stageDurationMetric.With(prometheus.Labels{stageLabel: stage}).Observe(d.Seconds())
}

func IncreaseDegradedExtraction(extractor string) {
	extractionDegradedMetric.With(prometheus.Labels{extractorLabel: extractor}).Inc()
}

func IncreaseInsightsSource(source string) {
	insightsSourceMetric.With(prometheus.Labels{sourceLabel: source}).Inc()
}

func IncreaseReportRender(state string) {
	reportRenderMetric.With(prometheus.Labels{stateLabel: state}).Inc()
}

func IncreaseVideoCleanup(state string) {
	videoCleanupMetric.With(prometheus.Labels{stateLabel: state}).Inc()
}

func IncreaseRejectedUpload(reason string) {
	uploadsRejectedMetric.With(prometheus.Labels{reasonLabel: reason}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(tasksTotalMetric)
	prometheus.MustRegister(stageDurationMetric)
	prometheus.MustRegister(extractionDegradedMetric)
	prometheus.MustRegister(insightsSourceMetric)
	prometheus.MustRegister(reportRenderMetric)
	prometheus.MustRegister(videoCleanupMetric)
	prometheus.MustRegister(uploadsRejectedMetric)
}
