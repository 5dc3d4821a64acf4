package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendbot/internal/backend"
	"spendbot/internal/config"
	"spendbot/internal/extract/genai"
	applog "spendbot/internal/log"
	"spendbot/internal/pipeline"
	"spendbot/internal/telegram"
)

// Webhook server: the stateless deployment variant. Telegram POSTs one
// update per request; no offset file is involved.
func main() {
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = "webhook"
	logger := applog.New(logCfg)
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

	mux := http.NewServeMux()
	mux.Handle(cfg.WebhookPath, telegram.NewWebhookHandler(client, pipe))

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting webhook server", "port", cfg.Port, "path", cfg.WebhookPath, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
