package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sara-ai/checkin-service/internal/analysis"
	"github.com/sara-ai/checkin-service/internal/analysis/audio"
	"github.com/sara-ai/checkin-service/internal/analysis/runner"
	"github.com/sara-ai/checkin-service/internal/analysis/video"
	apiserver "github.com/sara-ai/checkin-service/internal/api_server"
	"github.com/sara-ai/checkin-service/internal/client"
	"github.com/sara-ai/checkin-service/internal/config"
	"github.com/sara-ai/checkin-service/internal/events"
	handlers "github.com/sara-ai/checkin-service/internal/handlers/v1alpha1"
	"github.com/sara-ai/checkin-service/internal/insights"
	"github.com/sara-ai/checkin-service/internal/pipeline"
	"github.com/sara-ai/checkin-service/internal/ratelimit"
	"github.com/sara-ai/checkin-service/internal/report"
	"github.com/sara-ai/checkin-service/internal/service"
	"github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/pkg/metrics"
	"github.com/sara-ai/checkin-service/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const queueDrainTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the check-in api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, teardown, err := setup()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		defer teardown()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := migrate(cmd, cfg.Database.Type, cfg.Service.MigrationFolder, db, s); err != nil {
			return err
		}

		provider, err := newProvider(cfg)
		if err != nil {
			return err
		}

		reports, err := report.NewServiceFromConfig(cfg.Report)
		if err != nil {
			return fmt.Errorf("initializing report storage: %w", err)
		}

		chat := client.NewChatClient(cfg.Insights.Endpoint, cfg.Insights.APIKey, cfg.Insights.AttemptTimeout)
		synthesizer := insights.NewSynthesizer(chat, *cfg.Insights)
		if !chat.Configured() {
			zap.S().Warn("no LLM api key configured, insights come from the rule based generator")
		}

		producer := events.NewEventProducer(newEventWriter(cfg.Service.Kafka), events.WithOutputTopic(cfg.Service.Kafka.Topic))
		defer func() {
			if err := producer.Close(); err != nil {
				zap.S().Warnw("failed to close event producer", "error", err)
			}
		}()

		orchestrator := pipeline.NewOrchestrator(s, provider, synthesizer, reports, *cfg.Pipeline).WithEvents(producer)

		// workers outlive the signal context so that running tasks can finish
		workCtx, workCancel := context.WithCancel(context.Background())
		defer workCancel()
		queue := pipeline.NewQueue(orchestrator, cfg.Pipeline.MaxWorkers, cfg.Pipeline.Backlog)
		queue.Start(workCtx)
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), queueDrainTimeout)
			defer stop()
			if err := queue.Stop(stopCtx); err != nil {
				zap.S().Warnw("task queue did not drain", "pending", queue.Len(), "error", err)
			}
		}()

		reaper, err := pipeline.NewReaper(s, queue, cfg.Service.Reaper)
		if err != nil {
			return fmt.Errorf("initializing reaper: %w", err)
		}
		reaper.WithEvents(producer).Start(ctx)
		defer reaper.Stop()

		if err := prometheus.Register(metrics.NewTaskStatsCollector(s)); err != nil {
			zap.S().Warnw("failed to register task collector", "error", err)
		}

		checkins := service.NewCheckInService(s, queue, provider, reports, *cfg.Media)
		if limiter := ratelimit.New(cfg.Service.Redis); limiter != nil {
			checkins.WithLimiter(limiter, cfg.Service.Redis.UploadsPerHour)
			defer limiter.Close()
		}

		handler := handlers.NewServiceHandler(checkins, cfg.Media.MaxUploadMB)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				return fmt.Errorf("creating listener: %w", err)
			}
			return apiserver.New(cfg, handler, listener).Run(gctx)
		})
		g.Go(func() error {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				return fmt.Errorf("creating metrics listener: %w", err)
			}
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener).Run(gctx)
		})

		return g.Wait()
	},
}

// migrate runs the goose migrations on postgres and the model based schema
// creation on sqlite.
func migrate(cmd *cobra.Command, dbType, folder string, db *gorm.DB, s store.Store) error {
	if dbType == "pgsql" {
		if err := migrations.MigrateStore(db, folder); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		return nil
	}
	if err := s.InitialMigration(cmd.Context()); err != nil {
		return fmt.Errorf("running initial migration: %w", err)
	}
	return nil
}

func newProvider(cfg *config.Config) (*analysis.Provider, error) {
	m := cfg.Media

	lexicon, err := audio.LoadLexicon(m.LexiconFile)
	if err != nil {
		return nil, err
	}

	var classifier audio.EmotionClassifier
	if m.EmotionScript != "" {
		classifier = runner.NewEmotions(m.PythonPath, m.EmotionScript)
	}

	face := video.NewExtractor(
		runner.NewFFProbe(m.FFProbePath),
		runner.NewLandmarks(m.PythonPath, m.LandmarksScript),
		m.MinDurationSeconds,
		m.MaxDurationSeconds,
		m.TargetFPS,
	)
	speech := audio.NewExtractor(
		runner.NewTranscriber(m.PythonPath, m.TranscribeScript),
		runner.NewAcoustics(m.PythonPath, m.AcousticScript),
		classifier,
		lexicon,
	)

	return analysis.NewProvider(face, speech, cfg.Pipeline.MaxExtractions, cfg.Pipeline.StageTimeout), nil
}

func newEventWriter(cfg config.KafkaConfig) events.Writer {
	if len(cfg.Brokers) == 0 {
		zap.S().Info("no kafka brokers configured, events are written to stdout")
		return &events.StdoutWriter{}
	}
	return events.NewKafkaWriter(cfg.Brokers, cfg.ClientID)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
