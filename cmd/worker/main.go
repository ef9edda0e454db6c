package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/ingredient-search/internal/bootstrap"
	"github.com/kirillkom/ingredient-search/internal/config"
	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/observability/logging"
	"github.com/kirillkom/ingredient-search/internal/observability/metrics"
)

const eventTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithLogger(logger),
		bootstrap.WithEvents(),
		bootstrap.WithReindexObserver(workerMetrics.ObserveReindex),
	)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	if app.Events == nil {
		logger.Error("worker_requires_nats", "hint", "set NATS_ENABLED=true")
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Events.SubscribeRecordChanged(ctx, func(handlerCtx context.Context, event domain.RecordChanged) error {
		workerMetrics.StartEvent()
		started := time.Now()
		if !event.At.IsZero() {
			workerMetrics.ObserveEventLag(started.Sub(event.At))
		}

		eventCtx, cancel := context.WithTimeout(handlerCtx, eventTimeout)
		defer cancel()
		err := app.ReindexUC.HandleRecordChanged(eventCtx, event)
		workerMetrics.FinishEvent(time.Since(started), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
