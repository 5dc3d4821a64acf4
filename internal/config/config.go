package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken    string
	OffsetFile  string
	PollTimeout time.Duration

	// Webhook server
	Port        string
	WebhookPath string

	// Extraction
	GeminiAPIKey string
	GeminiModel  string

	// Google Sheets
	SpreadsheetID      string
	SheetName          string
	ServiceAccountKey  string
	ServiceAccountFile string

	// Local backend + sync
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Backend selection: sheets, sqlite or memory
	DataBackend string

	// Timezone for expense dates (message origination time)
	Timezone string
}

func Load() *Config {
	return &Config{
		BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		OffsetFile:  getEnv("OFFSET_FILE", "last_offset.json"),
		PollTimeout: getEnvDuration("POLL_TIMEOUT", 30*time.Second),

		Port:        getEnv("PORT", "8080"),
		WebhookPath: getEnv("WEBHOOK_PATH", "/api/webhook"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", ""),

		SpreadsheetID:      getEnv("GOOGLE_SHEET_ID", ""),
		SheetName:          getEnv("GOOGLE_SHEET_NAME", "Sheet1"),
		ServiceAccountKey:  getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendbot.db"),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_expenses"),

		DataBackend: getEnv("DATA_BACKEND", "sheets"),

		Timezone: getEnv("TZ_NAME", "Asia/Singapore"),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "sheets", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [sheets sqlite memory]", c.DataBackend))
	}

	if c.DataBackend == "sheets" {
		if c.SpreadsheetID == "" {
			errs = append(errs, "GOOGLE_SHEET_ID is required when using the sheets backend")
		}
		if c.ServiceAccountKey == "" && c.ServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errs = append(errs, "service account credentials required for sheets backend (GOOGLE_SERVICE_ACCOUNT_KEY or GOOGLE_SERVICE_ACCOUNT_FILE)")
		}
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PollTimeout < time.Second || c.PollTimeout > 90*time.Second {
		errs = append(errs, fmt.Sprintf("invalid poll timeout %v: must be between 1s and 90s", c.PollTimeout))
	}

	if !strings.HasPrefix(c.WebhookPath, "/") {
		errs = append(errs, fmt.Sprintf("invalid webhook path '%s': must start with '/'", c.WebhookPath))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Location resolves the configured timezone; call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
