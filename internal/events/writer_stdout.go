package events

import (
	"context"

	"go.uber.org/zap"
)

// event writer used in dev
type StdoutWriter struct{}

func (s *StdoutWriter) Write(ctx context.Context, topic string, e Event) error {
	zap.S().Named("stdout_writer").Infow("event wrote", "id", e.ID, "type", e.Type, "data", string(e.Data), "topic", topic)
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
