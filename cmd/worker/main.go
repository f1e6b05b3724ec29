package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/akoreshkov/docfields/internal/adapters/http"
	"github.com/akoreshkov/docfields/internal/bootstrap"
	"github.com/akoreshkov/docfields/internal/config"
	"github.com/akoreshkov/docfields/internal/core/domain"
	"github.com/akoreshkov/docfields/internal/observability/logging"
	"github.com/akoreshkov/docfields/internal/observability/metrics"
)

const serviceName = "docfields-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app.ProcessUC.OnRetry = func() { workerMetrics.ObserveRetry(serviceName) }

	// The worker serves metrics and the live status websocket: status
	// events originate here, so subscribers connect where the events are.
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.Handle("/ws/tasks/", httpadapter.StatusHandler(app.Hub))
	sidecar := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: mux,
	}
	go func() {
		logger.Info("worker_sidecar_listening", "port", cfg.WorkerMetricsPort)
		if err := sidecar.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker sidecar error: %v", err)
		}
	}()

	// Covers the full retry schedule plus slack for the attempts
	// themselves.
	taskTimeout := time.Duration(cfg.TaskRetryMaxAttempts*cfg.TaskRetryBackoffSeconds)*time.Second + 10*time.Minute

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeExtractionRequests(ctx, func(handlerCtx context.Context, req domain.ExtractionRequest) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, taskTimeout)
		defer cancel()

		if !req.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(req.EnqueuedAt))
		}

		workerMetrics.StartTask()
		start := time.Now()
		outcome := app.ProcessUC.Run(processCtx, req)

		var runErr error
		if outcome.Err != "" {
			runErr = errors.New(outcome.Err)
		}
		workerMetrics.FinishTask(serviceName, time.Since(start), runErr)
		return runErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sidecar.Shutdown(shutdownCtx)
}
