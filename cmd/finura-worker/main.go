package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finura/internal/amqp"
	"finura/internal/backup"
	"finura/internal/config"
	applog "finura/internal/log"
	"finura/internal/storage"
	"finura/internal/worker"
)

// The worker consumes transaction change events and copies the affected
// transactions to the Google Sheets backup. A periodic sweep picks up
// anything the event path missed.
func main() {
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = "worker"
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		logger.Error("Backup worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Backup worker requires GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target, err := backup.NewSheetsTargetFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets target", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets target initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	backupWorker := worker.NewBackupWorker(repo, target, cfg.BackupBatchSize, cfg.BackupInterval)

	// Catch up on anything that accumulated while the worker was down.
	if err := backupWorker.SweepOnce(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeTransactionChanged(ctx, func(msg *amqp.TransactionChangedMessage) error {
				return backupWorker.HandleChangeMessage(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, relying on periodic sweep only")
	}

	g.Go(func() error {
		err := backupWorker.RunPendingSweep(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logger.Info("Backup worker started",
		"batch_size", cfg.BackupBatchSize,
		"interval", cfg.BackupInterval)

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
