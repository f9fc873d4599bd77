package pipeline_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/client"
	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/events"
	"github.com/sara-ai/checkin-service/internal/insights"
	"github.com/sara-ai/checkin-service/internal/pipeline"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeExtractors struct {
	face     model.FaceMetrics
	faceErr  error
	audio    model.AudioMetrics
	observe  func(stage string)
	panicMsg string
}

func (f *fakeExtractors) Face(_ context.Context, _ string) (model.FaceMetrics, error) {
	if f.observe != nil {
		f.observe("face")
	}
	return f.face, f.faceErr
}

func (f *fakeExtractors) Audio(_ context.Context, _ string) (model.AudioMetrics, error) {
	if f.observe != nil {
		f.observe("audio")
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.audio, nil
}

type fakeRenderer struct {
	location string
	err      error
	observe  func(stage string)
	got      *model.CheckIn
	name     string
}

func (f *fakeRenderer) Render(_ context.Context, checkIn model.CheckIn, name, _ string) (string, error) {
	if f.observe != nil {
		f.observe("report")
	}
	f.got = &checkIn
	f.name = name
	return f.location, f.err
}

type recordingPublisher struct {
	lock  sync.Mutex
	kinds []string
}

func (r *recordingPublisher) Publish(_ context.Context, kind string, _ any) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.kinds = append(r.kinds, kind)
	return nil
}

func offlineSynthesizer() *insights.Synthesizer {
	cfg := config.InsightsConfig{Shape: "narrative", Attempts: 3, RetryDelay: time.Millisecond, AttemptTimeout: time.Second}
	return insights.NewSynthesizer(client.NewChatClient("http://127.0.0.1:1", "", time.Second), cfg)
}

var _ = Describe("orchestrator", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		videoDir  string
		pipeCfg   config.PipelineConfig
		extract   *fakeExtractors
		renderer  *fakeRenderer
		publisher *recordingPublisher
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration(context.TODO())).To(Succeed())
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		videoDir = GinkgoT().TempDir()
		pipeCfg = config.PipelineConfig{CleanupAttempts: 3, CleanupDelay: time.Millisecond, DefaultDisplayName: "Employee"}
		extract = &fakeExtractors{
			face:  model.FaceMetrics{StressAvg: 30, StressMax: 45, StressMin: 12, EngagementScore: 82, FaceDetected: true, DurationSeconds: 20},
			audio: model.AudioMetrics{HasAudio: true, Transcript: "all good", WordCount: 2, Sentiment: model.SentimentPositive},
		}
		renderer = &fakeRenderer{location: "/reports/checkin.html"}
		publisher = &recordingPublisher{}
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM checkins;")
		gormdb.Exec("DELETE FROM tasks;")
		gormdb.Exec("DELETE FROM users;")
	})

	newJob := func() pipeline.Job {
		id := uuid.New()
		path := filepath.Join(videoDir, id.String()+".mp4")
		Expect(os.WriteFile(path, []byte("video"), 0o600)).To(Succeed())

		_, err := s.Task().Create(context.TODO(), model.Task{
			ID:         id,
			OwnerID:    "user-1",
			OwnerEmail: "user@example.com",
			Status:     model.TaskStatusQueued,
			Message:    "Video uploaded, queued for processing",
			VideoPath:  path,
		})
		Expect(err).To(BeNil())

		return pipeline.Job{TaskID: id, OwnerID: "user-1", OwnerEmail: "user@example.com", VideoPath: path, Notes: "steady week"}
	}

	newOrchestrator := func() *pipeline.Orchestrator {
		return pipeline.NewOrchestrator(s, extract, offlineSynthesizer(), renderer, pipeCfg).
			WithEvents(publisher)
	}

	Context("success", func() {
		It("completes the task and deletes the video", func() {
			Expect(s.User().Upsert(context.TODO(), model.User{ID: "user-1", Email: "user@example.com", FirstName: "Dana", LastName: "Scott"})).To(Succeed())
			job := newJob()

			Expect(newOrchestrator().Work(context.TODO(), job)).To(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusCompleted))
			Expect(task.Progress).To(Equal(100))
			Expect(task.Error).To(BeNil())

			result := task.Result.Data()
			Expect(result.VideoDeleted).To(BeTrue())
			Expect(result.Metrics.StressAvg).To(Equal(30.0))
			Expect(result.Metrics.Audio.Transcript).To(Equal("all good"))

			_, err = os.Stat(job.VideoPath)
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())

			checkIn, err := s.CheckIn().Get(context.TODO(), result.CheckInID)
			Expect(err).To(BeNil())
			Expect(checkIn.TaskID).To(Equal(job.TaskID))
			Expect(checkIn.Notes).To(Equal("steady week"))
			Expect(checkIn.ReportLocation).NotTo(BeNil())
			Expect(*checkIn.ReportLocation).To(Equal("/reports/checkin.html"))
			Expect(checkIn.Insights.Data().Valid()).To(BeTrue())
			Expect(checkIn.Insights.Data().Source).To(Equal(model.SourceFallback))

			Expect(renderer.name).To(Equal("Dana Scott"))
			Expect(publisher.kinds).To(Equal([]string{events.TaskCompletedKind}))
		})

		It("reports non-decreasing progress through the stages", func() {
			job := newJob()
			seen := map[string]int{}
			observe := func(stage string) {
				task, err := s.Task().Get(context.TODO(), job.TaskID)
				Expect(err).To(BeNil())
				seen[stage] = task.Progress
			}
			extract.observe = observe
			renderer.observe = observe

			Expect(newOrchestrator().Work(context.TODO(), job)).To(Succeed())

			Expect(seen).To(Equal(map[string]int{"face": 10, "audio": 40, "report": 85}))
		})

		It("completes when no face was detected", func() {
			extract.face = model.FaceMetrics{FaceDetected: false, Degraded: true, Error: "facial analysis unavailable"}
			job := newJob()

			Expect(newOrchestrator().Work(context.TODO(), job)).To(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusCompleted))
			Expect(task.Result.Data().Metrics.FaceDetected).To(BeFalse())
		})

		It("uses the placeholder name for unknown users", func() {
			job := newJob()
			Expect(newOrchestrator().Work(context.TODO(), job)).To(Succeed())
			Expect(renderer.name).To(Equal("Employee"))
		})
	})

	Context("isolated failures", func() {
		It("completes without a report when rendering fails", func() {
			renderer.err = errors.New("disk full")
			job := newJob()

			Expect(newOrchestrator().Work(context.TODO(), job)).To(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusCompleted))
			Expect(task.Result.Data().VideoDeleted).To(BeTrue())

			checkIn, err := s.CheckIn().Get(context.TODO(), task.Result.Data().CheckInID)
			Expect(err).To(BeNil())
			Expect(checkIn.ReportLocation).To(BeNil())
		})

		It("does not retry a video that is already gone", func() {
			job := newJob()
			calls := 0
			o := newOrchestrator().WithRemover(func(string) error {
				calls++
				return fs.ErrNotExist
			})

			Expect(o.Work(context.TODO(), job)).To(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusCompleted))
			Expect(task.Result.Data().VideoDeleted).To(BeFalse())
			Expect(calls).To(Equal(1))
		})

		It("retries failed deletions before giving up", func() {
			job := newJob()
			calls := 0
			var delays []time.Duration
			o := newOrchestrator().
				WithRemover(func(string) error {
					calls++
					return fs.ErrPermission
				}).
				WithSleep(func(_ context.Context, d time.Duration) error {
					delays = append(delays, d)
					return nil
				})

			Expect(o.Work(context.TODO(), job)).To(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusCompleted))
			Expect(task.Message).To(Equal("Video processing complete, video retained"))
			Expect(task.Result.Data().VideoDeleted).To(BeFalse())
			Expect(calls).To(Equal(3))
			Expect(delays).To(HaveLen(2))
		})
	})

	Context("fatal failures", func() {
		It("fails the task and keeps the video on invalid media", func() {
			extract.faceErr = analysis.NewInvalidMediaError("video is too short: 2.0 seconds")
			job := newJob()

			Expect(newOrchestrator().Work(context.TODO(), job)).NotTo(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusFailed))
			Expect(task.Message).To(Equal("Error processing video: facial analysis: video is too short: 2.0 seconds"))
			Expect(task.Error).NotTo(BeNil())
			Expect(*task.Error).To(ContainSubstring(job.VideoPath))

			_, err = os.Stat(job.VideoPath)
			Expect(err).To(BeNil())

			count, err := s.CheckIn().Count(context.TODO(), store.NewCheckInQueryFilter().ByTaskID(job.TaskID.String()))
			Expect(err).To(BeNil())
			Expect(count).To(BeZero())
			Expect(publisher.kinds).To(Equal([]string{events.TaskFailedKind}))
		})

		It("keeps the storage directory out of the task message", func() {
			job := newJob()
			extract.faceErr = errors.New("open " + job.VideoPath + ": permission denied")

			Expect(newOrchestrator().Work(context.TODO(), job)).NotTo(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusFailed))
			Expect(task.Message).NotTo(ContainSubstring(videoDir))
			Expect(task.Message).To(ContainSubstring(filepath.Base(job.VideoPath)))
			Expect(*task.Error).To(ContainSubstring(job.VideoPath))
		})

		It("fails the task when the check-in cannot be stored", func() {
			job := newJob()
			_, err := s.CheckIn().Create(context.TODO(), model.CheckIn{
				OwnerID:  "user-1",
				TaskID:   job.TaskID,
				Metrics:  datatypes.NewJSONType(model.Metrics{}),
				Insights: datatypes.NewJSONType(model.Insights{Shape: model.ShapeSummary, Source: model.SourceFallback, Summary: "earlier"}),
			})
			Expect(err).To(BeNil())

			Expect(newOrchestrator().Work(context.TODO(), job)).NotTo(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusFailed))
			Expect(task.Message).To(HavePrefix("Error processing video: saving check-in"))
			Expect(task.Result).To(BeNil())

			_, err = os.Stat(job.VideoPath)
			Expect(err).To(BeNil())

			count, err := s.CheckIn().Count(context.TODO(), store.NewCheckInQueryFilter().ByTaskID(job.TaskID.String()))
			Expect(err).To(BeNil())
			Expect(count).To(BeEquivalentTo(1))
			Expect(renderer.got).To(BeNil())
			Expect(publisher.kinds).To(Equal([]string{events.TaskFailedKind}))
		})

		It("fails the task when a stage panics", func() {
			extract.panicMsg = "decoder exploded"
			job := newJob()

			Expect(newOrchestrator().Work(context.TODO(), job)).NotTo(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusFailed))
			Expect(task.Message).To(Equal("Error processing video: unexpected failure: decoder exploded"))
			Expect(task.Message).NotTo(ContainSubstring("goroutine"))

			_, err = os.Stat(job.VideoPath)
			Expect(err).To(BeNil())
		})

		It("leaves a terminal task untouched", func() {
			job := newJob()
			Expect(newOrchestrator().Work(context.TODO(), job)).To(Succeed())

			Expect(newOrchestrator().Work(context.TODO(), job)).NotTo(Succeed())

			task, err := s.Task().Get(context.TODO(), job.TaskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusCompleted))
			Expect(task.Progress).To(Equal(100))
		})
	})
})
