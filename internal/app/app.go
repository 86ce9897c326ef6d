package app

import (
	"context"
	"fmt"
	"log/slog"

	"ResearchDigest/internal/config"
	"ResearchDigest/internal/infrastructure/arxiv"
	"ResearchDigest/internal/infrastructure/discord"
	"ResearchDigest/internal/infrastructure/llm"
	"ResearchDigest/internal/infrastructure/rss"
	"ResearchDigest/internal/infrastructure/scheduler"
	"ResearchDigest/internal/infrastructure/storage"
	"ResearchDigest/internal/logging"
	"ResearchDigest/internal/metrics"
	"ResearchDigest/internal/ports"
	"ResearchDigest/internal/server"
	"ResearchDigest/internal/usecase"
)

// Application wires configuration to adapters, use cases and lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.Store
	pipeline *usecase.Pipeline
	sink     ports.Sink
	metrics  *metrics.Metrics

	close func() error
}

// New builds the full dependency graph from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.ForConfig(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewStore(db)

	texts := llm.NewOpenAIService(cfg.OpenAI, baseLogger.With("component", "openai"))
	newsSource := rss.NewScraper(cfg.News.Sources, cfg.News.MaxArticles, nil, baseLogger.With("component", "rss"))
	paperSource := arxiv.NewClient(cfg.Arxiv.BaseURL, cfg.Arxiv.MaxResults, nil, baseLogger.With("component", "arxiv"))

	var sink ports.Sink
	if cfg.Discord.WebhookURL != "" {
		sink = discord.NewWebhookSink(cfg.Discord.WebhookURL, cfg.Discord.ChunkSize)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		News:        usecase.NewNewsStage(newsSource, texts, baseLogger.With("component", "news")),
		Papers:      paperSource,
		Selector:    usecase.NewSelectionEngine(texts, store, baseLogger.With("component", "selection")),
		Formatter:   usecase.NewFormatter(texts, baseLogger.With("component", "formatter")),
		Featured:    store,
		Runs:        store,
		SelectCount: cfg.Research.SelectedPapersCount,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		pipeline: pipeline,
		sink:     sink,
		metrics:  metrics.New(),
		close:    db.Close,
	}, nil
}

// RunOnce triggers a single pipeline execution and returns the digest
// document so the caller can print or deliver it.
func (a *Application) RunOnce(ctx context.Context, lookbackDays int, topic string, deliver bool) error {
	if lookbackDays == 0 {
		lookbackDays = a.cfg.Research.DefaultLookbackDays
	}

	run, err := a.pipeline.Run(ctx, usecase.RunParams{
		LookbackDays:    lookbackDays,
		Topic:           topic,
		PersistFeatured: a.cfg.Research.PersistFeatured,
		Observer: func(event usecase.ProgressEvent) {
			a.logger.Info("progress", "step", event.Step, "status", event.Status, "percent", event.Percent)
		},
	})
	if err != nil {
		return err
	}

	a.metrics.RecordRun(run)

	if !run.Success {
		return fmt.Errorf("pipeline run %s failed: %v", run.ID, run.Errors)
	}

	fmt.Println(run.Document)

	if deliver && a.sink != nil {
		if err := a.sink.Deliver(ctx, run.Document); err != nil {
			return fmt.Errorf("deliver digest: %w", err)
		}
	}

	return nil
}

// Serve runs the HTTP trigger surface until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	srv := server.New(server.Options{
		Addr:                a.cfg.Server.Addr,
		Runner:              a.pipeline,
		Store:               a.store,
		Metrics:             a.metrics,
		Logger:              a.logger.With("component", "server"),
		DefaultLookbackDays: a.cfg.Research.DefaultLookbackDays,
		PersistFeatured:     a.cfg.Research.PersistFeatured,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Schedule blocks running the daily digest job until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	driver, err := scheduler.NewDailyScheduler(a.cfg.Scheduler.DailyRunTime, a.cfg.Scheduler.Location())
	if err != nil {
		return fmt.Errorf("configure scheduler: %w", err)
	}

	sched := usecase.NewScheduler(
		driver,
		a.pipeline,
		a.sink,
		a.cfg.Research.DefaultLookbackDays,
		a.cfg.Research.PersistFeatured,
		a.logger.With("component", "scheduler"),
	)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daily digest scheduled", "time", a.cfg.Scheduler.DailyRunTime, "timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Statistics reads the store counters.
func (a *Application) Statistics(ctx context.Context) (string, error) {
	stats, err := a.store.Statistics(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Total runs: %d\nSuccessful runs: %d\nTotal items: %d\nTotal featured: %d\n",
		stats.TotalRuns, stats.SuccessfulRuns, stats.TotalItems, stats.TotalFeatured,
	), nil
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.close != nil {
		return a.close()
	}
	return nil
}
