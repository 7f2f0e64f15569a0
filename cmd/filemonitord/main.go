package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mercadoapps/filemonitor/internal/async"
	"github.com/mercadoapps/filemonitor/internal/common"
	"github.com/mercadoapps/filemonitor/internal/delivery"
	"github.com/mercadoapps/filemonitor/internal/export"
	"github.com/mercadoapps/filemonitor/internal/parser"
	"github.com/mercadoapps/filemonitor/internal/pipeline"
	"github.com/mercadoapps/filemonitor/internal/repository"
	"github.com/mercadoapps/filemonitor/internal/server"
	"github.com/mercadoapps/filemonitor/internal/watch"
)

func main() {
	cfg := common.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := parser.ValidateLayout(); err != nil {
		logger.Error("invalid record layout", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer records.Close()

	sender := delivery.New(cfg.Remote.BaseURL, cfg.Remote.ProductsPath, cfg.Remote.Timeout, logger)
	processor := pipeline.NewProcessor(logger, records, sender,
		cfg.Monitor.OutputDir, cfg.Monitor.ProductOutputDir)

	inflight := watch.NewInFlight()
	queue := async.NewQueue(processor, logger,
		async.WithWorkers(cfg.Monitor.Workers),
		async.WithQueueSize(cfg.Monitor.QueueSize),
		async.WithProcessTimeout(cfg.Monitor.ProcessTimeout),
		async.WithRelease(func(path string) {
			inflight.Remove(filepath.Base(path))
		}),
	)

	monitor := watch.NewMonitor(cfg.Monitor, inflight, processor, queue, logger)
	if err := monitor.Start(ctx); err != nil {
		logger.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}
	logger.Info("monitoring started",
		"input_dir", cfg.Monitor.InputDir,
		"pattern", cfg.Monitor.FilePattern,
		"poll_interval", cfg.Monitor.PollInterval)

	exporter := export.NewService(records, logger)
	srv := server.New(records, monitor, processor, exporter, logger)
	if err := srv.Serve(ctx, cfg.Server.Addr); err != nil {
		logger.Error("http server failed", "error", err)
	}

	// Let in-flight jobs finish before the record store closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
