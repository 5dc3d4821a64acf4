// Package backend selects the expense sink implementation at startup.
package backend

import (
	"context"

	"spendbot/internal/sheets"
)

// Type names a sink backend.
type Type string

const (
	// Sheets writes straight to the Google Sheet (the default deployment).
	Sheets Type = "sheets"
	// SQLite writes locally and lets the sync worker forward rows.
	SQLite Type = "sqlite"
	// Memory keeps rows in process, for tests and dry runs.
	Memory Type = "memory"
)

func (t Type) IsValid() bool {
	switch t {
	case Sheets, SQLite, Memory:
		return true
	}
	return false
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result is the chosen writer plus its cleanup.
type Result struct {
	Writer  sheets.ExpenseWriter
	Cleanup CleanupFunc
}

// Config holds what each backend needs to start.
type Config struct {
	Type Type

	// Google Sheets
	SpreadsheetID      string
	SheetName          string
	ServiceAccountKey  string
	ServiceAccountFile string

	// SQLite + sync queue
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Factory creates a backend from config.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}
