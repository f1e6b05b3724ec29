package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akoreshkov/docfields/internal/config"
	"github.com/akoreshkov/docfields/internal/core/ports"
	"github.com/akoreshkov/docfields/internal/core/usecase"
	"github.com/akoreshkov/docfields/internal/infrastructure/extractor/pdftext"
	"github.com/akoreshkov/docfields/internal/infrastructure/llm/gemini"
	"github.com/akoreshkov/docfields/internal/infrastructure/notifier/ws"
	"github.com/akoreshkov/docfields/internal/infrastructure/ocr/tesseract"
	"github.com/akoreshkov/docfields/internal/infrastructure/queue/nats"
	"github.com/akoreshkov/docfields/internal/infrastructure/repository/postgres"
	"github.com/akoreshkov/docfields/internal/infrastructure/resilience"
	"github.com/akoreshkov/docfields/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Jobs    ports.JobRepository
	Results ports.ResultRepository
	Queue   ports.TaskQueue
	Hub     *ws.Hub

	SubmitUC  ports.DocumentSubmitter
	ProcessUC *usecase.ProcessTaskUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	jobs := postgres.NewJobRepository(db)
	if err := jobs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure jobs schema: %w", err)
	}
	results := postgres.NewResultRepository(db)
	if err := results.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure results schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queueExecutor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: queueExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init task queue: %w", err)
	}

	// The orchestrator owns the retry loop for the whole pipeline, so
	// the model client gets a breaker but no retries of its own.
	llmExecutor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: 1,
		BreakerEnabled:   true,
	})
	generator := gemini.New(gemini.Options{
		BaseURL:  cfg.GeminiURL,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Timeout:  time.Duration(cfg.GeminiTimeoutSeconds) * time.Second,
		Executor: llmExecutor,
	})

	ocr := tesseract.New(tesseract.Config{
		Pdftoppm:  cfg.PdftoppmPath,
		Tesseract: cfg.TesseractPath,
		Lang:      cfg.OCRLang,
		DPI:       cfg.OCRDPI,
	}, logger)
	extractor := pdftext.NewExtractor(ocr, logger)

	hub := ws.NewHub(logger)

	submitUC := usecase.NewSubmitDocumentUseCase(jobs, storage, queue)
	processUC := usecase.NewProcessTaskUseCase(
		jobs,
		results,
		extractor,
		generator,
		hub,
		usecase.RetryPolicy{
			MaxAttempts: cfg.TaskRetryMaxAttempts,
			Backoff:     time.Duration(cfg.TaskRetryBackoffSeconds) * time.Second,
		},
		logger,
	)

	if cfg.JobsSeedFile != "" {
		if err := SeedJobs(ctx, cfg.JobsSeedFile, jobs, logger); err != nil {
			return nil, fmt.Errorf("seed jobs: %w", err)
		}
	}

	return &App{
		Config:  cfg,
		Jobs:    jobs,
		Results: results,
		Queue:   queue,
		Hub:     hub,

		SubmitUC:  submitUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
