// Package worker forwards locally stored expenses to the spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"spendbot/internal/amqp"
	"spendbot/internal/sheets"
	"spendbot/internal/storage"
)

// ExpenseSource is the slice of the SQLite repository the worker needs,
// extracted so tests can substitute a fake.
type ExpenseSource interface {
	GetExpense(ctx context.Context, id int64) (storage.StoredExpense, error)
	ListUnsynced(ctx context.Context, limit int) ([]storage.StoredExpense, error)
	MarkSynced(ctx context.Context, id int64) error
}

// SyncWorker consumes sync messages and appends the referenced rows to the
// sheet, marking them synced on success. The consumer and the periodic sweep
// run concurrently; syncs are serialized so both cannot push the same row.
type SyncWorker struct {
	source    ExpenseSource
	sheet     sheets.ExpenseWriter
	batchSize int

	mu sync.Mutex
}

func NewSyncWorker(source ExpenseSource, sheet sheets.ExpenseWriter, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{source: source, sheet: sheet, batchSize: batchSize}
}

// HandleSyncMessage processes one sync message. Errors propagate so the
// delivery is requeued.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	stored, err := w.source.GetExpense(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if stored.Synced {
		slog.InfoContext(ctx, "Expense already synced, skipping", "id", msg.ID)
		return nil
	}

	return w.syncOne(ctx, stored)
}

// StartupSweep pushes rows whose sync message was lost, e.g. when the bot
// crashed between the local write and the publish. Processing stops at the
// first failure; the next sweep or message retries.
func (w *SyncWorker) StartupSweep(ctx context.Context) error {
	pending, err := w.source.ListUnsynced(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Syncing pending expenses", "count", len(pending))
	for _, stored := range pending {
		if err := w.syncOne(ctx, stored); err != nil {
			return err
		}
	}
	return nil
}

func (w *SyncWorker) syncOne(ctx context.Context, stored storage.StoredExpense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Re-read under the lock: the other path may have synced this row while
	// we waited.
	stored, err := w.source.GetExpense(ctx, stored.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	if stored.Synced {
		return nil
	}

	ref, err := w.sheet.Append(ctx, stored.Expense)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.source.MarkSynced(ctx, stored.ID); err != nil {
		// The row is on the sheet already; failing here would requeue and
		// duplicate it. Log and move on.
		slog.ErrorContext(ctx, "Failed to mark expense synced", "id", stored.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Expense synced to sheet", "id", stored.ID, "row", ref)
	return nil
}
