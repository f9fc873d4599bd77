package report

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"go.uber.org/zap"
)

type Service struct {
	renderers map[Format]Renderer
	format    Format
	storage   Storage
	now       func() time.Time
}

// NewService registers the built-in renderers and renders with format.
func NewService(format Format, storage Storage) (*Service, error) {
	s := &Service{
		renderers: make(map[Format]Renderer),
		storage:   storage,
		now:       time.Now,
	}

	for _, r := range []Renderer{NewHTMLRenderer(), NewXLSXRenderer(), NewPDFRenderer()} {
		s.renderers[r.SupportedFormat()] = r
	}

	if _, ok := s.renderers[format]; !ok {
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	s.format = format

	return s, nil
}

// NewServiceFromConfig picks the storage backend named in the configuration.
func NewServiceFromConfig(cfg *config.ReportConfig) (*Service, error) {
	var (
		storage Storage
		err     error
	)
	switch cfg.Storage {
	case "minio", "s3":
		storage, err = NewMinioStorage(
			WithEndpoint(cfg.Endpoint),
			WithBucket(cfg.Bucket),
			WithAccessKey(cfg.AccessKey),
			WithSecretKey(cfg.SecretKey),
			WithSSL(cfg.UseSSL),
		)
	case "", "local":
		storage, err = NewLocalStorage(cfg.Dir)
	default:
		err = fmt.Errorf("unknown report storage %q", cfg.Storage)
	}
	if err != nil {
		return nil, err
	}

	zap.S().Named("report").Infow("report storage configured", "type", storage.Type(), "format", cfg.Format)

	return NewService(Format(cfg.Format), storage)
}

// WithClock replaces the generated-at stamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Render builds the report of checkIn and stores it. It returns the storage
// location.
func (s *Service) Render(ctx context.Context, checkIn model.CheckIn, employeeName, employeeEmail string) (string, error) {
	renderer := s.renderers[s.format]
	generatedAt := s.now()

	body, err := renderer.Render(Data{
		CheckIn:       checkIn,
		EmployeeName:  employeeName,
		EmployeeEmail: employeeEmail,
		GeneratedAt:   generatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", s.format, err)
	}

	name := fmt.Sprintf("checkin_%s_%s.%s", checkIn.ID, generatedAt.Format("20060102_150405"), s.format)
	return s.storage.Put(ctx, name, renderer.ContentType(), body)
}

// Open returns the stored report at location together with its content type.
func (s *Service) Open(ctx context.Context, location string) (io.ReadCloser, string, error) {
	contentType := "application/octet-stream"
	ext := strings.TrimPrefix(filepath.Ext(location), ".")
	if r, ok := s.renderers[Format(ext)]; ok {
		contentType = r.ContentType()
	}

	body, err := s.storage.Open(ctx, location)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}
