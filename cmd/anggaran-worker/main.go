package main

import (
	"context"
	"errors"
	"os"

	"anggaran/internal/amqp"
	"anggaran/internal/backend"
	"anggaran/internal/cli"
	"anggaran/internal/services"
	"anggaran/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting anggaran-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := cli.SignalContext(context.Background(), logger)

	source, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize document source", "error", err, "backend", cfg.SourceBackend)
		os.Exit(1)
	}

	syncService := services.NewSyncService(repo, source, services.SyncConfig{
		Backend:     cfg.SourceBackend,
		Reference:   backend.Reference(cfg),
		ExportDir:   cfg.ExportDir,
		Parallelism: cfg.SyncParallelism,
	})

	// AMQP is optional. A configured URL that fails is a deployment
	// error; an absent URL means the worker runs on schedule alone.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	var publisher worker.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	w := worker.New(syncService, publisher, worker.Config{
		Cron:    cfg.SyncCron,
		OnStart: cfg.SyncOnStart,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start worker", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeSyncRequests(ctx, func(msg *amqp.SyncRequestMessage) error {
				return w.HandleSyncRequest(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, running on schedule only")
	}

	<-ctx.Done()

	logger.Info("Shutting down worker...")
	w.Stop()

	metrics := w.GetMetrics()
	logger.Info("Worker shutdown complete",
		"batches_run", metrics.BatchesRun,
		"batches_failed", metrics.BatchesFailed)
}
