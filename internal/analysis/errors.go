package analysis

import "fmt"

// InvalidMediaError reports an upload that cannot be analyzed: unreadable,
// too short or too long. It is never retried.
type InvalidMediaError struct {
	Reason string
}

func NewInvalidMediaError(format string, args ...any) *InvalidMediaError {
	return &InvalidMediaError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidMediaError) Error() string {
	return e.Reason
}
