// Package storage is the local SQLite expense store backing the sqlite
// deployment variant. Rows land here first and a worker forwards them to the
// spreadsheet asynchronously.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"spendbot/internal/core"
	"spendbot/internal/sheets"
)

// isoDate is the storage form of an expense date; presentation formatting
// stays in core.Date.
const isoDate = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

var _ sheets.ExpenseWriter = (*SQLiteRepository)(nil)

// StoredExpense is one persisted row together with its sync state.
type StoredExpense struct {
	ID      int64
	Expense core.Expense
	Synced  bool
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements sheets.ExpenseWriter. The returned row reference is the
// numeric row ID.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, name, category, amount) VALUES (?, ?, ?, ?)`,
		e.Date.Format(isoDate), e.Name, string(e.Category), e.Amount)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"name", e.Name,
		"category", e.Category,
		"amount", e.Amount)

	return strconv.FormatInt(id, 10), nil
}

// GetExpense loads one row by ID.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (StoredExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, name, category, amount, synced FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// ListUnsynced returns up to limit rows not yet forwarded to the sheet,
// oldest first so spreadsheet order matches arrival order.
func (r *SQLiteRepository) ListUnsynced(ctx context.Context, limit int) ([]StoredExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, name, category, amount, synced FROM expenses
		 WHERE synced = 0 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced: %w", err)
	}
	defer rows.Close()

	var out []StoredExpense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSynced records that a row reached the sheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET synced = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (StoredExpense, error) {
	var (
		e        StoredExpense
		date     string
		category string
		synced   int
	)
	if err := row.Scan(&e.ID, &date, &e.Expense.Name, &category, &e.Expense.Amount, &synced); err != nil {
		return StoredExpense{}, fmt.Errorf("scan expense: %w", err)
	}
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return StoredExpense{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	e.Expense.Date = core.Date{Time: t}
	e.Expense.Category = core.NormalizeCategory(category)
	e.Synced = synced != 0
	return e, nil
}
