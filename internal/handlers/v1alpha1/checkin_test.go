package v1alpha1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/sara-ai/checkin-service/api/v1alpha1"
	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/auth"
	"github.com/sara-ai/checkin-service/internal/config"
	handlers "github.com/sara-ai/checkin-service/internal/handlers/v1alpha1"
	"github.com/sara-ai/checkin-service/internal/pipeline"
	"github.com/sara-ai/checkin-service/internal/report"
	"github.com/sara-ai/checkin-service/internal/service"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type stubValidator struct {
	err error
}

func (s stubValidator) Validate(context.Context, string) (analysis.MediaInfo, error) {
	return analysis.MediaInfo{FPS: 30, DurationSeconds: 20}, s.err
}

type stubQueue struct {
	err error
}

func (s stubQueue) Insert(pipeline.Job) error {
	return s.err
}

type stubReports struct{}

func (stubReports) Open(_ context.Context, location string) (io.ReadCloser, string, error) {
	if location != "/reports/ok.html" {
		return nil, "", report.ErrNotFound
	}
	return io.NopCloser(strings.NewReader("<html>ok</html>")), "text/html; charset=utf-8", nil
}

var _ = Describe("checkin handlers", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		validator *stubValidator
		queue     *stubQueue
		router    *chi.Mux
		owner     auth.User
		caller    auth.User
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration(context.TODO())).To(Succeed())

		owner = auth.User{ID: "owner", Email: "owner@example.com", FirstName: "Ana"}
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		validator = &stubValidator{}
		queue = &stubQueue{}
		caller = owner

		srv := service.NewCheckInService(s, queue, validator, stubReports{}, config.MediaConfig{
			VideoDir:       GinkgoT().TempDir(),
			MaxUploadMB:    1,
			MinUploadBytes: 1024,
		})

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.NewTokenContext(r.Context(), caller)))
			})
		})
		router.Get("/health", handlers.Health)
		handlers.NewServiceHandler(srv, 1).Routes(router)
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM checkins;")
		gormdb.Exec("DELETE FROM tasks;")
		gormdb.Exec("DELETE FROM users;")
	})

	upload := func(filename, contentType string, size int, fields map[string]string) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		for k, v := range fields {
			Expect(mw.WriteField(k, v)).To(Succeed())
		}
		if filename != "" {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename="%s"`, filename))
			h.Set("Content-Type", contentType)
			part, err := mw.CreatePart(h)
			Expect(err).To(BeNil())
			_, err = part.Write(make([]byte, size))
			Expect(err).To(BeNil())
		}
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkins", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	decodeError := func(rec *httptest.ResponseRecorder) api.Error {
		var e api.Error
		Expect(json.Unmarshal(rec.Body.Bytes(), &e)).To(Succeed())
		return e
	}

	createCheckIn := func(ownerID string, location *string) uuid.UUID {
		c, err := s.CheckIn().Create(context.TODO(), model.CheckIn{
			OwnerID:        ownerID,
			TaskID:         uuid.New(),
			Metrics:        datatypes.NewJSONType(model.Metrics{}),
			Insights:       datatypes.NewJSONType(model.Insights{Shape: model.ShapeSummary, Source: model.SourceFallback, Summary: "ok"}),
			ReportLocation: location,
		})
		Expect(err).To(BeNil())
		return c.ID
	}

	It("answers the health probe", func() {
		rec := get("/health")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"healthy"`))
	})

	Context("upload", func() {
		It("accepts a check-in video", func() {
			rec := upload("checkin.webm", "video/webm", 2048, map[string]string{"notes": "hello", "today": "docs"})
			Expect(rec.Code).To(Equal(http.StatusAccepted))

			var accepted api.UploadAccepted
			Expect(json.Unmarshal(rec.Body.Bytes(), &accepted)).To(Succeed())
			Expect(accepted.Status).To(Equal(api.TaskStatusQueued))
			Expect(accepted.TaskID).NotTo(Equal(uuid.Nil))

			rec = get("/api/v1/checkins/tasks/" + accepted.TaskID.String())
			Expect(rec.Code).To(Equal(http.StatusOK))

			var task api.Task
			Expect(json.Unmarshal(rec.Body.Bytes(), &task)).To(Succeed())
			Expect(task.Status).To(Equal(api.TaskStatusQueued))
			Expect(task.Progress).To(Equal(0))
			Expect(task.Result).To(BeNil())
		})

		It("requires the video part", func() {
			rec := upload("", "", 0, map[string]string{"notes": "hello"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(rec).Message).To(Equal("video file is required"))
		})

		It("rejects an unsupported content type", func() {
			rec := upload("checkin.mp4", "image/png", 2048, nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects notes with control characters", func() {
			rec := upload("checkin.mp4", "video/mp4", 2048, map[string]string{"notes": "a\x07b"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(rec).Message).To(ContainSubstring("notes contains invalid characters"))
		})

		It("rejects a too short video without a task", func() {
			validator.err = analysis.NewInvalidMediaError("Video too short (1.0s). Minimum required: 5s")

			rec := upload("checkin.mp4", "video/mp4", 2048, nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(rec).Message).To(ContainSubstring("Video too short"))

			var count int64
			Expect(gormdb.Model(&model.Task{}).Count(&count).Error).To(BeNil())
			Expect(count).To(BeZero())
		})

		It("answers 413 for a body over the limit", func() {
			rec := upload("checkin.mp4", "video/mp4", 1536*1024, nil)
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("answers 503 when the queue is full", func() {
			queue.err = pipeline.ErrQueueFull
			rec := upload("checkin.mp4", "video/mp4", 2048, nil)
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("tasks", func() {
		It("answers 404 for unknown and malformed ids", func() {
			Expect(get("/api/v1/checkins/tasks/" + uuid.NewString()).Code).To(Equal(http.StatusNotFound))
			Expect(get("/api/v1/checkins/tasks/not-a-uuid").Code).To(Equal(http.StatusNotFound))
		})

		It("answers 403 to another user", func() {
			rec := upload("checkin.mp4", "video/mp4", 2048, nil)
			Expect(rec.Code).To(Equal(http.StatusAccepted))
			var accepted api.UploadAccepted
			Expect(json.Unmarshal(rec.Body.Bytes(), &accepted)).To(Succeed())

			caller = auth.User{ID: "someone-else"}
			Expect(get("/api/v1/checkins/tasks/" + accepted.TaskID.String()).Code).To(Equal(http.StatusForbidden))
		})

		It("shows the result of a completed task", func() {
			checkInID := uuid.New()
			result := datatypes.NewJSONType(model.TaskResult{CheckInID: checkInID, VideoDeleted: true})
			task, err := s.Task().Create(context.TODO(), model.Task{
				ID:       uuid.New(),
				OwnerID:  "owner",
				Status:   model.TaskStatusCompleted,
				Progress: 100,
				Message:  "Video processing complete, video deleted",
				Result:   &result,
			})
			Expect(err).To(BeNil())

			rec := get("/api/v1/checkins/tasks/" + task.ID.String())
			Expect(rec.Code).To(Equal(http.StatusOK))

			var got api.Task
			Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
			Expect(got.Status).To(Equal(api.TaskStatusCompleted))
			Expect(got.Result).NotTo(BeNil())
			Expect(got.Result.CheckInID).To(Equal(checkInID))
			Expect(got.Result.VideoDeleted).To(BeTrue())
		})

		It("keeps the retained video location out of a failed task", func() {
			errText := "invalid data found when processing input (video retained at /srv/videos/owner/a.mp4)"
			task, err := s.Task().Create(context.TODO(), model.Task{
				ID:       uuid.New(),
				OwnerID:  "owner",
				Status:   model.TaskStatusFailed,
				Progress: 10,
				Message:  "Error processing video: invalid data found when processing input",
				Error:    &errText,
			})
			Expect(err).To(BeNil())

			rec := get("/api/v1/checkins/tasks/" + task.ID.String())
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).NotTo(ContainSubstring("/srv/videos"))
			Expect(rec.Body.String()).NotTo(ContainSubstring(`"error"`))

			var got api.Task
			Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
			Expect(got.Status).To(Equal(api.TaskStatusFailed))
			Expect(got.Message).To(HavePrefix("Error processing video:"))
			Expect(got.Result).To(BeNil())
		})
	})

	Context("check-ins", func() {
		It("lists the caller's check-ins", func() {
			for i := 0; i < 3; i++ {
				createCheckIn("owner", nil)
			}
			createCheckIn("other", nil)

			rec := get("/api/v1/checkins?page=1&page_size=2")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list api.CheckInList
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list.CheckIns).To(HaveLen(2))
			Expect(list.TotalCount).To(BeEquivalentTo(3))
			Expect(list.TotalPages).To(Equal(2))
			Expect(list.HasNext).To(BeTrue())
		})

		It("rejects a malformed page", func() {
			Expect(get("/api/v1/checkins?page=abc").Code).To(Equal(http.StatusBadRequest))
		})

		It("lets admins read any check-in", func() {
			id := createCheckIn("other", nil)
			Expect(get("/api/v1/checkins/" + id.String()).Code).To(Equal(http.StatusForbidden))

			caller = auth.User{ID: "admin", Admin: true}
			rec := get("/api/v1/checkins/" + id.String())
			Expect(rec.Code).To(Equal(http.StatusOK))

			var got api.CheckIn
			Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
			Expect(got.ID).To(Equal(id))
			Expect(got.HasReport).To(BeFalse())
			Expect(got.Insights.Summary).To(Equal("ok"))
		})

		It("downloads the report", func() {
			location := "/reports/ok.html"
			id := createCheckIn("owner", &location)

			rec := get("/api/v1/checkins/" + id.String() + "/report")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("checkin_report_" + id.String() + ".html"))
			Expect(rec.Body.String()).To(Equal("<html>ok</html>"))
		})

		It("answers 404 when there is no report", func() {
			id := createCheckIn("owner", nil)
			Expect(get("/api/v1/checkins/" + id.String() + "/report").Code).To(Equal(http.StatusNotFound))
		})
	})
})
