package v1alpha1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sara-ai/checkin-service/internal/auth"
	"github.com/sara-ai/checkin-service/internal/handlers/v1alpha1/mappers"
	"github.com/sara-ai/checkin-service/internal/handlers/validator"
	"github.com/sara-ai/checkin-service/internal/service"
	"go.uber.org/zap"
)

const multipartMemory = 32 << 20

type checkInForm struct {
	Filename string `validate:"required,filename"`
	Notes    string `validate:"max=5000,plain_text"`
	Today    string `validate:"max=2000,plain_text"`
	Blockers string `validate:"max=2000,plain_text"`
	Tomorrow string `validate:"max=2000,plain_text"`
}

// (POST /api/v1/checkins)
func (h *ServiceHandler) CreateCheckIn(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, service.NewErrUploadTooLarge(h.maxUploadBytes/(1024*1024)))
			return
		}
		writeError(w, r, service.NewErrInvalidUpload("invalid multipart form: %w", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, r, service.NewErrInvalidUpload("video file is required"))
		return
	}
	defer file.Close()

	form := checkInForm{
		Filename: header.Filename,
		Notes:    r.FormValue("notes"),
		Today:    r.FormValue("today"),
		Blockers: r.FormValue("blockers"),
		Tomorrow: r.FormValue("tomorrow"),
	}
	if err := h.validator.Struct(form); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.checkins.Upload(r.Context(), user, service.UploadForm{
		Filename:    form.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Video:       file,
		Notes:       form.Notes,
		Today:       form.Today,
		Blockers:    form.Blockers,
		Tomorrow:    form.Tomorrow,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, mappers.UploadAcceptedToApi(*task))
}

// (GET /api/v1/checkins/tasks/{id})
func (h *ServiceHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.NewErrTaskNotFound(uuid.Nil))
		return
	}

	task, err := h.checkins.GetTask(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.TaskToApi(*task))
}

// (GET /api/v1/checkins)
func (h *ServiceHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", service.DefaultPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.checkins.ListCheckIns(r.Context(), user, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CheckInPageToApi(*result))
}

// (GET /api/v1/checkins/{id})
func (h *ServiceHandler) GetCheckIn(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.NewErrCheckInNotFound(uuid.Nil))
		return
	}

	checkIn, err := h.checkins.GetCheckIn(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CheckInToApi(*checkIn))
}

// (GET /api/v1/checkins/{id}/report)
func (h *ServiceHandler) GetCheckInReport(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.NewErrCheckInNotFound(uuid.Nil))
		return
	}

	report, err := h.checkins.GetReport(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer report.Body.Close()

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, report.Body); err != nil {
		zap.S().Named("handler").Warnw("failed to stream report", "checkin_id", id, "error", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validator.NewErrInvalidField("%s must be an integer", name)
	}
	return v, nil
}
