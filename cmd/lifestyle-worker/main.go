package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/uestliguci/LifestyleCalculator/internal/amqp"
	"github.com/uestliguci/LifestyleCalculator/internal/backup"
	"github.com/uestliguci/LifestyleCalculator/internal/config"
	"github.com/uestliguci/LifestyleCalculator/internal/logging"
	"github.com/uestliguci/LifestyleCalculator/internal/storage/sqlite"
	"github.com/uestliguci/LifestyleCalculator/internal/worker"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	slog.Info("Starting lifestyle-worker")

	cfg := config.Load()
	if err := cfg.ValidateBackup(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		slog.Error("The backup worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to open sqlite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mirror, err := backup.NewSheetsMirror(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize Google Sheets mirror", "error", err)
		os.Exit(1)
	}
	slog.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewBackupWorker(store, mirror, cfg.BackupBatchSize)

	// Drain whatever accumulated while the worker was down.
	if err := w.StartupCheck(ctx); err != nil {
		slog.Error("Startup backup check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeBackups(ctx, func(msg *amqp.BackupMessage) error {
			return w.HandleMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		return w.RunSweep(ctx, cfg.BackupInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped gracefully")
}
