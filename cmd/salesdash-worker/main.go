package main

import (
	"context"
	"errors"
	"os"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	"salesdash/internal/log"
	"salesdash/internal/worker"
)

// salesdash-worker consumes dataset.loaded events and records them in the
// load history, so the web process never writes to the database when a
// broker is configured.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting salesdash-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	if cfg.HistoryDBPath == "" {
		logger.Error("HISTORY_DB_PATH is required for the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	repo := cli.InitHistory(logger, cfg.HistoryDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	historyWorker := worker.NewHistoryWorker(repo, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeDatasetLoaded(ctx, historyWorker.HandleDatasetLoaded)
	}()

	logger.Info("Consuming dataset loaded events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"db_path", cfg.HistoryDBPath)

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Consumer stopped")
	case <-ctx.Done():
		<-done
		logger.Info("Worker shutdown complete")
	}
}
