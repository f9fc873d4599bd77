package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrTaskNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "task")
}

func NewErrCheckInNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "check-in")
}

func NewErrReportNotFound(id uuid.UUID) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("report of check-in %s not found", id)}
}

type ErrForbidden struct {
	error
}

func NewErrForbidden(resourceType string, id uuid.UUID) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("access to %s %s denied", resourceType, id)}
}

// ErrInvalidUpload covers uploads rejected before any media inspection.
type ErrInvalidUpload struct {
	error
}

func NewErrInvalidUpload(format string, args ...any) *ErrInvalidUpload {
	return &ErrInvalidUpload{fmt.Errorf(format, args...)}
}

// ErrInvalidMedia is returned when the probed video is unreadable or out of
// the duration bounds.
type ErrInvalidMedia struct {
	error
}

func NewErrInvalidMedia(reason string) *ErrInvalidMedia {
	return &ErrInvalidMedia{fmt.Errorf("%s", reason)}
}

type ErrUploadTooLarge struct {
	error
}

func NewErrUploadTooLarge(maxMB int64) *ErrUploadTooLarge {
	return &ErrUploadTooLarge{fmt.Errorf("video file too large, maximum: %dMB", maxMB)}
}

type ErrRateLimited struct {
	error
}

func NewErrRateLimited(limit int) *ErrRateLimited {
	return &ErrRateLimited{fmt.Errorf("upload limit of %d per hour reached", limit)}
}

type ErrServiceBusy struct {
	error
}

func NewErrServiceBusy() *ErrServiceBusy {
	return &ErrServiceBusy{fmt.Errorf("too many videos are waiting for processing, try again later")}
}
