package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	api "github.com/sara-ai/checkin-service/api/v1alpha1"
	"github.com/sara-ai/checkin-service/internal/handlers/validator"
	"github.com/sara-ai/checkin-service/internal/service"
	"github.com/sara-ai/checkin-service/pkg/requestid"
	"go.uber.org/zap"
)

// multipart overhead allowed on top of the video size limit
const formOverheadBytes = 1 << 20

type ServiceHandler struct {
	checkins       *service.CheckInService
	validator      *validator.Validator
	maxUploadBytes int64
}

func NewServiceHandler(checkins *service.CheckInService, maxUploadMB int64) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewCheckInValidationRules()...)

	return &ServiceHandler{
		checkins:       checkins,
		validator:      v,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// Routes mounts the check-in API. The caller installs authentication.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Route("/api/v1/checkins", func(r chi.Router) {
		r.Post("/", h.CreateCheckIn)
		r.Get("/", h.ListCheckIns)
		r.Get("/tasks/{id}", h.GetTask)
		r.Get("/{id}", h.GetCheckIn)
		r.Get("/{id}/report", h.GetCheckInReport)
	})
}

// (GET /health)
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Health{Status: "healthy"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch err.(type) {
	case *service.ErrInvalidUpload, *service.ErrInvalidMedia, *validator.ErrInvalidField:
		status = http.StatusBadRequest
	case *service.ErrForbidden:
		status = http.StatusForbidden
	case *service.ErrResourceNotFound:
		status = http.StatusNotFound
	case *service.ErrUploadTooLarge:
		status = http.StatusRequestEntityTooLarge
	case *service.ErrRateLimited:
		status = http.StatusTooManyRequests
	case *service.ErrServiceBusy:
		status = http.StatusServiceUnavailable
	default:
		zap.S().Named("handler").Errorw("request failed", "path", r.URL.Path, "request_id", requestid.FromRequest(r), "error", err)
		message = "internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestID: requestid.FromRequest(r)})
}
