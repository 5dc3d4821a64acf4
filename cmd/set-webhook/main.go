// One-time script: register the webhook URL with Telegram.
//
// Usage:
//
//	set-webhook https://your-app.example.com
//
// Telegram will then POST all bot updates to <base-url><WEBHOOK_PATH>.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"spendbot/internal/config"
	"spendbot/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: set-webhook https://your-app.example.com")
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.BotToken == "" {
		fmt.Fprintln(os.Stderr, "TELEGRAM_BOT_TOKEN not found; set it in .env or the environment")
		os.Exit(1)
	}

	webhookURL := strings.TrimRight(os.Args[1], "/") + cfg.WebhookPath

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := telegram.NewClient(cfg.BotToken)
	if err := client.SetWebhook(ctx, webhookURL); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set webhook: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Webhook set successfully. Telegram will POST updates to %s\n", webhookURL)
}
