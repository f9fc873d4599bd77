package insights

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sara-ai/checkin-service/internal/client"
	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"github.com/sara-ai/checkin-service/pkg/metrics"
	"go.uber.org/zap"
)

// Completer sends one chat completion request.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req client.ChatRequest) (string, error)
}

type Synthesizer struct {
	completer Completer
	cfg       config.InsightsConfig
	shape     model.InsightsShape
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewSynthesizer(completer Completer, cfg config.InsightsConfig) *Synthesizer {
	shape := model.InsightsShape(cfg.Shape)
	if _, ok := layouts[shape]; !ok {
		shape = model.ShapeNarrative
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Synthesizer{
		completer: completer,
		cfg:       cfg,
		shape:     shape,
		sleep:     sleepContext,
	}
}

// WithSleep replaces the backoff wait. Used by tests.
func (s *Synthesizer) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Synthesizer {
	s.sleep = fn
	return s
}

func (s *Synthesizer) Shape() model.InsightsShape {
	return s.shape
}

// Synthesize asks the model for insights and falls back to the deterministic
// generator on any failure. It always returns a valid value.
func (s *Synthesizer) Synthesize(ctx context.Context, m model.Metrics, notes, employeeName string) model.Insights {
	logger := zap.S().Named("insights")

	if s.completer == nil || !s.completer.Configured() {
		logger.Debug("no model credentials, using fallback insights")
		return s.fallback(m, employeeName)
	}

	req := client.ChatRequest{
		Model: s.cfg.Model,
		Messages: []client.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(s.shape, m, notes, employeeName)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}

	for attempt := 0; attempt < s.cfg.Attempts; attempt++ {
		content, err := s.complete(ctx, req)
		if err == nil {
			if in, ok := Parse(s.shape, content); ok && in.Valid() {
				metrics.IncreaseInsightsSource(string(model.SourceModel))
				return in
			}
			logger.Warnw("model response could not be parsed", "attempt", attempt+1)
			break
		}

		if !transient(err) {
			logger.Warnw("model request failed", "error", err)
			break
		}

		logger.Warnw("transient model failure", "attempt", attempt+1, "error", err)
		if attempt == s.cfg.Attempts-1 {
			break
		}
		if err := s.sleep(ctx, time.Duration(attempt+1)*s.cfg.RetryDelay); err != nil {
			break
		}
	}

	return s.fallback(m, employeeName)
}

func (s *Synthesizer) complete(ctx context.Context, req client.ChatRequest) (string, error) {
	if s.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		defer cancel()
	}
	return s.completer.Complete(ctx, req)
}

func (s *Synthesizer) fallback(m model.Metrics, employeeName string) model.Insights {
	metrics.IncreaseInsightsSource(string(model.SourceFallback))
	return Fallback(s.shape, m, employeeName)
}

// transient classifies rate limits, server errors, timeouts and connection
// failures as retryable.
func transient(err error) bool {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
