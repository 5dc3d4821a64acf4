package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendbot/internal/amqp"
	"spendbot/internal/services"
	gsheet "spendbot/internal/sheets/google"
	"spendbot/internal/sheets/memory"
	"spendbot/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct{}

var _ Factory = (*DefaultFactory)(nil)

func NewFactory() *DefaultFactory {
	return &DefaultFactory{}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	switch cfg.Type {
	case Sheets:
		return f.createSheets(ctx, cfg)
	case SQLite:
		return f.createSQLite(ctx, cfg)
	case Memory:
		slog.InfoContext(ctx, "Initialized memory backend")
		return &Result{Writer: memory.New(), Cleanup: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

func (f *DefaultFactory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	client, err := gsheet.New(gsheet.Config{
		SpreadsheetID:      cfg.SpreadsheetID,
		SheetName:          cfg.SheetName,
		ServiceAccountKey:  cfg.ServiceAccountKey,
		ServiceAccountFile: cfg.ServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	slog.InfoContext(ctx, "Initialized Google Sheets backend", "spreadsheet_id", cfg.SpreadsheetID)
	return &Result{Writer: client, Cleanup: func() error { return nil }}, nil
}

func (f *DefaultFactory) createSQLite(ctx context.Context, cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("create sqlite repository: %w", err)
	}

	// AMQP is optional: without it rows stay local until the worker's
	// startup sweep picks them up.
	var queue *amqp.Client
	if cfg.AMQPURL != "" {
		queue, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("create amqp client: %w", err)
		}
	} else {
		slog.WarnContext(ctx, "No AMQP URL configured, expenses sync only via worker sweep")
	}

	svc := services.NewExpenseService(repo, queue)
	slog.InfoContext(ctx, "Initialized SQLite backend", "path", cfg.SQLiteDBPath, "amqp", cfg.AMQPURL != "")
	return &Result{Writer: svc, Cleanup: svc.Close}, nil
}
