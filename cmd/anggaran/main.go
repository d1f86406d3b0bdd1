package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"anggaran/internal/amqp"
	"anggaran/internal/backend"
	"anggaran/internal/cli"
	apphttp "anggaran/internal/http"
	"anggaran/internal/middleware/ratelimit"
	"anggaran/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting anggaran server")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := cli.SignalContext(context.Background(), logger)

	source, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize document source", "error", err, "backend", cfg.SourceBackend)
		os.Exit(1)
	}

	// AMQP is optional. Without it POST /api/sync runs the import inline
	// instead of handing it to the worker.
	var publisher apphttp.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, sync requests will run inline", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	syncService := services.NewSyncService(repo, source, services.SyncConfig{
		Backend:     cfg.SourceBackend,
		Reference:   backend.Reference(cfg),
		ExportDir:   cfg.ExportDir,
		Parallelism: cfg.SyncParallelism,
	})
	analyzer := services.NewAnalyzerService(repo)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:     ":" + cfg.Port,
		CacheTTL: cfg.AnalysisCacheTTL,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	}, repo, analyzer, syncService, publisher)

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port, "backend", cfg.SourceBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
