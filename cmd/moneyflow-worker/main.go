package main

import (
	"context"
	"errors"
	"os"
	_ "time/tzdata"

	"moneyflow/internal/amqp"
	"moneyflow/internal/cli"
	applog "moneyflow/internal/log"
	"moneyflow/internal/storage"
	"moneyflow/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(applog.ComponentWorker)
	loc := cfg.Location()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ingest worker",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, loc)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	logger.Info("Starting moneyflow-worker",
		"queue", cfg.AMQPQueue,
		"db_path", cfg.SQLiteDBPath)

	w := worker.NewIngestWorker(repo, loc, logger)
	if err := w.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
