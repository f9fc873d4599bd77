package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/auth"
	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/pipeline"
	"github.com/sara-ai/checkin-service/internal/report"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"github.com/sara-ai/checkin-service/internal/util"
	"github.com/sara-ai/checkin-service/pkg/metrics"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

const (
	queuedMessage   = "Video uploaded, queued for processing"
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	AllowedContentTypes = []string{"video/mp4", "video/webm", "video/x-matroska", "video/quicktime", "video/x-msvideo"}
	AllowedExtensions   = []string{"mp4", "webm", "mkv", "mov", "avi"}
)

type MediaValidator interface {
	Validate(ctx context.Context, path string) (analysis.MediaInfo, error)
}

type TaskQueue interface {
	Insert(job pipeline.Job) error
}

type UploadLimiter interface {
	Allow(ctx context.Context, user string) (bool, error)
}

type ReportStore interface {
	Open(ctx context.Context, location string) (io.ReadCloser, string, error)
}

// UploadForm is one multipart check-in submission.
type UploadForm struct {
	Filename    string
	ContentType string
	Size        int64
	Video       io.Reader
	Notes       string
	Today       string
	Blockers    string
	Tomorrow    string
}

// CombinedNotes joins the free text and the stand-up answers.
func (f UploadForm) CombinedNotes() string {
	return strings.TrimSpace(fmt.Sprintf("%s\n\nToday: %s\nBlockers: %s\nTomorrow: %s", f.Notes, f.Today, f.Blockers, f.Tomorrow))
}

type CheckInPage struct {
	CheckIns   model.CheckInList
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

type CheckInService struct {
	store     store.Store
	queue     TaskQueue
	validator MediaValidator
	limiter   UploadLimiter
	reports   ReportStore
	media     config.MediaConfig
	rateLimit int
}

func NewCheckInService(s store.Store, queue TaskQueue, validator MediaValidator, reports ReportStore, media config.MediaConfig) *CheckInService {
	return &CheckInService{
		store:     s,
		queue:     queue,
		validator: validator,
		reports:   reports,
		media:     media,
	}
}

// WithLimiter enables the per-user upload limit.
func (s *CheckInService) WithLimiter(limiter UploadLimiter, perHour int) *CheckInService {
	s.limiter = limiter
	s.rateLimit = perHour
	return s
}

// Upload stores the video, checks it and queues a task for it. No task is
// created when the video is rejected.
func (s *CheckInService) Upload(ctx context.Context, user auth.User, form UploadForm) (*model.Task, error) {
	logger := zap.S().Named("checkin_service").With("user", user.ID)

	if err := s.checkLimit(ctx, user); err != nil {
		metrics.IncreaseRejectedUpload("rate_limited")
		return nil, err
	}

	ext, err := s.checkForm(form)
	if err != nil {
		return nil, err
	}

	taskID := uuid.New()
	path, err := util.ConfinedPath(s.media.VideoDir, taskID.String()+"."+ext)
	if err != nil {
		metrics.IncreaseRejectedUpload("path")
		return nil, NewErrInvalidUpload("invalid file path")
	}

	if err := s.save(path, form.Video); err != nil {
		return nil, err
	}

	if _, err := s.validator.Validate(ctx, path); err != nil {
		removeVideo(path)
		var invalid *analysis.InvalidMediaError
		if errors.As(err, &invalid) {
			metrics.IncreaseRejectedUpload("invalid_media")
			return nil, NewErrInvalidMedia(invalid.Reason)
		}
		return nil, fmt.Errorf("failed to inspect video: %w", err)
	}

	s.rememberUser(ctx, user)

	task, err := s.store.Task().Create(ctx, model.Task{
		ID:         taskID,
		OwnerID:    user.ID,
		OwnerEmail: user.Email,
		Status:     model.TaskStatusQueued,
		Message:    queuedMessage,
		VideoPath:  path,
	})
	if err != nil {
		removeVideo(path)
		return nil, err
	}

	err = s.queue.Insert(pipeline.Job{
		TaskID:     task.ID,
		OwnerID:    user.ID,
		OwnerEmail: user.Email,
		VideoPath:  path,
		Notes:      form.CombinedNotes(),
	})
	if err != nil {
		logger.Warnw("failed to queue task", "task_id", task.ID, "error", err)
		s.reject(ctx, task.ID, path, err)
		metrics.IncreaseRejectedUpload("queue_full")
		return nil, NewErrServiceBusy()
	}

	logger.Infow("check-in queued", "task_id", task.ID, "size", form.Size)
	return task, nil
}

func (s *CheckInService) checkLimit(ctx context.Context, user auth.User) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, user.ID)
	if err != nil {
		zap.S().Named("checkin_service").Warnw("rate limiter unavailable, upload allowed", "user", user.ID, "error", err)
		return nil
	}
	if !ok {
		return NewErrRateLimited(s.rateLimit)
	}
	return nil
}

// checkForm validates the declared type, name and size. It returns the
// normalized extension.
func (s *CheckInService) checkForm(form UploadForm) (string, error) {
	if !funk.ContainsString(AllowedContentTypes, form.ContentType) {
		metrics.IncreaseRejectedUpload("content_type")
		return "", NewErrInvalidUpload("invalid file type, allowed types: %s", strings.Join(AllowedContentTypes, ", "))
	}

	name := filepath.Base(form.Filename)
	if form.Filename == "" || name == "." || name == string(filepath.Separator) {
		metrics.IncreaseRejectedUpload("filename")
		return "", NewErrInvalidUpload("filename is required")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !funk.ContainsString(AllowedExtensions, ext) {
		metrics.IncreaseRejectedUpload("extension")
		return "", NewErrInvalidUpload("invalid file extension, allowed extensions: %s", strings.Join(AllowedExtensions, ", "))
	}

	if form.Size > s.maxBytes() {
		metrics.IncreaseRejectedUpload("too_large")
		return "", NewErrUploadTooLarge(s.media.MaxUploadMB)
	}
	if form.Size < s.media.MinUploadBytes {
		metrics.IncreaseRejectedUpload("too_small")
		return "", NewErrInvalidUpload("video file appears to be empty or corrupted")
	}

	return ext, nil
}

func (s *CheckInService) maxBytes() int64 {
	return s.media.MaxUploadMB * 1024 * 1024
}

// save copies the upload to path. The declared size is not trusted: the
// copy stops one byte past the limit.
func (s *CheckInService) save(path string, video io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create video directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(video, s.maxBytes()+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		removeVideo(path)
		return fmt.Errorf("failed to save video: %w", err)
	}

	switch {
	case written > s.maxBytes():
		removeVideo(path)
		metrics.IncreaseRejectedUpload("too_large")
		return NewErrUploadTooLarge(s.media.MaxUploadMB)
	case written < s.media.MinUploadBytes:
		removeVideo(path)
		metrics.IncreaseRejectedUpload("too_small")
		return NewErrInvalidUpload("video file appears to be empty or corrupted")
	}
	return nil
}

// rememberUser keeps the profile used for display names. Failures are only
// logged.
func (s *CheckInService) rememberUser(ctx context.Context, user auth.User) {
	role := model.RoleEmployee
	if user.IsAdmin() {
		role = model.RoleAdmin
	}
	if err := s.store.User().Upsert(ctx, model.User{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      role,
	}); err != nil {
		zap.S().Named("checkin_service").Warnw("failed to store user profile", "user", user.ID, "error", err)
	}
}

// reject fails a task the queue did not accept and drops its video.
func (s *CheckInService) reject(ctx context.Context, id uuid.UUID, path string, cause error) {
	message := fmt.Sprintf("Error processing video: %s", cause)
	errText := cause.Error()
	if _, err := s.store.Task().Update(ctx, id, store.TaskUpdate{
		Status:  model.TaskStatusFailed,
		Message: &message,
		Error:   &errText,
	}); err != nil {
		zap.S().Named("checkin_service").Errorw("failed to mark rejected task", "task_id", id, "error", err)
	}
	removeVideo(path)
}

func (s *CheckInService) GetTask(ctx context.Context, user auth.User, id uuid.UUID) (*model.Task, error) {
	task, err := s.store.Task().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTaskNotFound(id)
		}
		return nil, err
	}
	if task.OwnerID != user.ID {
		return nil, NewErrForbidden("task", id)
	}
	return task, nil
}

// ListCheckIns returns the caller's check-ins, newest first. Out of range
// paging values are clamped.
func (s *CheckInService) ListCheckIns(ctx context.Context, user auth.User, page, pageSize int) (*CheckInPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	filter := store.NewCheckInQueryFilter().ByOwner(user.ID)

	total, err := s.store.CheckIn().Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	checkIns, err := s.store.CheckIn().List(ctx, filter, store.NewCheckInQueryOptions().WithPage(page, pageSize))
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return &CheckInPage{
		CheckIns:   checkIns,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// GetCheckIn is allowed to the owner and to admins.
func (s *CheckInService) GetCheckIn(ctx context.Context, user auth.User, id uuid.UUID) (*model.CheckIn, error) {
	checkIn, err := s.store.CheckIn().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCheckInNotFound(id)
		}
		return nil, err
	}
	if checkIn.OwnerID != user.ID && !user.IsAdmin() {
		return nil, NewErrForbidden("check-in", id)
	}
	return checkIn, nil
}

// Report is an open report document. Body must be closed by the caller.
type Report struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

func (s *CheckInService) GetReport(ctx context.Context, user auth.User, id uuid.UUID) (*Report, error) {
	checkIn, err := s.GetCheckIn(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if checkIn.ReportLocation == nil || *checkIn.ReportLocation == "" {
		return nil, NewErrReportNotFound(id)
	}

	body, contentType, err := s.reports.Open(ctx, *checkIn.ReportLocation)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			return nil, NewErrReportNotFound(id)
		}
		return nil, err
	}

	return &Report{
		Body:        body,
		ContentType: contentType,
		Filename:    fmt.Sprintf("checkin_report_%s%s", id, filepath.Ext(*checkIn.ReportLocation)),
	}, nil
}

func removeVideo(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.S().Named("checkin_service").Warnw("failed to remove video", "path", path, "error", err)
	}
}
