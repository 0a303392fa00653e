package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"NewsPoster/internal/config"
	"NewsPoster/internal/feed"
	"NewsPoster/internal/infrastructure/gemini"
	"NewsPoster/internal/infrastructure/hatena"
	"NewsPoster/internal/infrastructure/readable"
	"NewsPoster/internal/infrastructure/scheduler"
	"NewsPoster/internal/logging"
	"NewsPoster/internal/ports"
	"NewsPoster/internal/seen"
	"NewsPoster/internal/usecase"
)

// Application wires configuration to the delivery pipeline and its lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
}

// New validates configuration and builds a runnable application instance.
// A missing credential is a fatal startup error, before any network call.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source := feed.NewFetcher(nil, cfg.Sources, baseLogger.With("component", "feed"))
	store := seen.NewFileStore(cfg.Seen.Path, baseLogger.With("component", "seen"))
	generator := gemini.NewClient(cfg.Gemini)
	publisher := hatena.NewPublisher(cfg.Hatena)

	var extractor ports.ContentExtractor
	if cfg.Pipeline.FetchFullText {
		extractor = readable.NewExtractor(nil)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Store:     store,
		Generator: generator,
		Publisher: publisher,
		Extractor: extractor,
		Logger:    baseLogger.With("component", "pipeline"),
		MaxPerRun: cfg.Pipeline.MaxPerRun,
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline}, nil
}

// Run executes one pipeline pass, or keeps running on the configured cron
// schedule when scheduled mode is enabled. A pass that completes with some
// failed entries is still a completed pass.
func (a *Application) Run(ctx context.Context) error {
	if !a.cfg.Scheduler.Enabled {
		report, err := a.pipeline.Run(ctx)
		if err != nil {
			return fmt.Errorf("pipeline pass: %w", err)
		}
		a.logger.Info("pass completed",
			"fetched", report.Fetched,
			"new", report.New,
			"delivered", report.Delivered,
			"skipped", report.Skipped,
			"failed", report.Failed)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression)
	runner := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduled mode running", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()
	return runner.Stop(context.Background())
}
