package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendbot/internal/backend"
	"spendbot/internal/config"
	"spendbot/internal/extract/genai"
	applog "spendbot/internal/log"
	"spendbot/internal/pipeline"
	"spendbot/internal/telegram"
)

// Long-polling bot daemon: the stateful deployment variant with an offset
// cursor file.
func main() {
	// Load .env for local development (ignore errors in production/docker).
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.BotToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := backend.NewFactory().CreateBackend(ctx, backend.Config{
		Type:               backend.Type(cfg.DataBackend),
		SpreadsheetID:      cfg.SpreadsheetID,
		SheetName:          cfg.SheetName,
		ServiceAccountKey:  cfg.ServiceAccountKey,
		ServiceAccountFile: cfg.ServiceAccountFile,
		SQLiteDBPath:       cfg.SQLiteDBPath,
		AMQPURL:            cfg.AMQPURL,
		AMQPExchange:       cfg.AMQPExchange,
		AMQPQueue:          cfg.AMQPQueue,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	parser, err := genai.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize Gemini parser", "error", err)
		os.Exit(1)
	}

	pipe := pipeline.New(parser, result.Writer, cfg.Location())
	client := telegram.NewClient(cfg.BotToken)
	offsets := telegram.NewOffsetStore(cfg.OffsetFile)
	poller := telegram.NewPoller(client, client, pipe, offsets, cfg.PollTimeout)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting spendbot", "backend", cfg.DataBackend, "offset_file", cfg.OffsetFile)
	if err := poller.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Poller error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
}
