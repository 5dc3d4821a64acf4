package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendbot/internal/amqp"
	"spendbot/internal/config"
	applog "spendbot/internal/log"
	gsheet "spendbot/internal/sheets/google"
	"spendbot/internal/storage"
	"spendbot/internal/worker"
)

// Periodic sweep interval for rows whose sync message was lost.
const sweepInterval = 5 * time.Minute

// Sync worker for the sqlite deployment variant: consumes sync messages and
// forwards local rows to the Google Sheet.
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
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheet, err := gsheet.New(gsheet.Config{
		SpreadsheetID:      cfg.SpreadsheetID,
		SheetName:          cfg.SheetName,
		ServiceAccountKey:  cfg.ServiceAccountKey,
		ServiceAccountFile: cfg.ServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	w := worker.NewSyncWorker(repo, sheet, 10)

	// Catch up on anything missed while the worker was down.
	if err := w.StartupSweep(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
		// Keep going: the periodic sweep retries.
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return queue.ConsumeSync(gctx, func(msg *amqp.SyncMessage) error {
			return w.HandleSyncMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := w.StartupSweep(gctx); err != nil {
					logger.Error("Periodic sweep failed", "error", err)
				}
			}
		}
	})

	logger.Info("Sync worker running", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
