package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"spendbot/internal/amqp"
	"spendbot/internal/core"
	"spendbot/internal/sheets/memory"
	"spendbot/internal/storage"
)

type fakeSource struct {
	mu     sync.Mutex
	rows   map[int64]*storage.StoredExpense
	getErr error
}

func (f *fakeSource) GetExpense(_ context.Context, id int64) (storage.StoredExpense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return storage.StoredExpense{}, f.getErr
	}
	row, ok := f.rows[id]
	if !ok {
		return storage.StoredExpense{}, errors.New("not found")
	}
	return *row, nil
}

func (f *fakeSource) ListUnsynced(_ context.Context, limit int) ([]storage.StoredExpense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.StoredExpense
	for id := int64(1); id <= int64(len(f.rows)) && len(out) < limit; id++ {
		if row, ok := f.rows[id]; ok && !row.Synced {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeSource) MarkSynced(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return errors.New("not found")
	}
	row.Synced = true
	return nil
}

func (f *fakeSource) synced(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Synced
}

func testExpense(name string) core.Expense {
	return core.Expense{Date: core.NewDate(2025, 1, 15), Name: name, Category: core.Food, Amount: 5}
}

func TestHandleSyncMessage(t *testing.T) {
	source := &fakeSource{rows: map[int64]*storage.StoredExpense{
		1: {ID: 1, Expense: testExpense("Kopi")},
	}}
	sheet := memory.New()
	w := NewSyncWorker(source, sheet, 10)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewSyncMessage(1)); err != nil {
		t.Fatalf("HandleSyncMessage failed: %v", err)
	}
	if len(sheet.Expenses()) != 1 {
		t.Fatal("expense did not reach the sheet")
	}
	if !source.rows[1].Synced {
		t.Error("expense not marked synced")
	}

	// Redelivery of the same message must not duplicate the row.
	if err := w.HandleSyncMessage(context.Background(), amqp.NewSyncMessage(1)); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if got := len(sheet.Expenses()); got != 1 {
		t.Errorf("sheet has %d rows after redelivery, want 1", got)
	}
}

// The AMQP consumer and the periodic sweep can both observe the same row as
// unsynced; only one of them may append it.
func TestConcurrentMessageAndSweepAppendOnce(t *testing.T) {
	source := &fakeSource{rows: map[int64]*storage.StoredExpense{
		1: {ID: 1, Expense: testExpense("Kopi")},
	}}
	sheet := memory.New()
	w := NewSyncWorker(source, sheet, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = w.HandleSyncMessage(context.Background(), amqp.NewSyncMessage(1))
		}()
		go func() {
			defer wg.Done()
			_ = w.StartupSweep(context.Background())
		}()
	}
	wg.Wait()

	if got := len(sheet.Expenses()); got != 1 {
		t.Errorf("sheet has %d rows, want exactly 1", got)
	}
	if !source.synced(1) {
		t.Error("expense not marked synced")
	}
}

func TestHandleSyncMessagePropagatesLookupError(t *testing.T) {
	source := &fakeSource{getErr: errors.New("db gone")}
	w := NewSyncWorker(source, memory.New(), 10)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewSyncMessage(1)); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
}

func TestStartupSweep(t *testing.T) {
	source := &fakeSource{rows: map[int64]*storage.StoredExpense{
		1: {ID: 1, Expense: testExpense("First")},
		2: {ID: 2, Expense: testExpense("Second"), Synced: true},
		3: {ID: 3, Expense: testExpense("Third")},
	}}
	sheet := memory.New()
	w := NewSyncWorker(source, sheet, 10)

	if err := w.StartupSweep(context.Background()); err != nil {
		t.Fatalf("StartupSweep failed: %v", err)
	}

	rows := sheet.Expenses()
	if len(rows) != 2 {
		t.Fatalf("synced %d rows, want 2", len(rows))
	}
	if rows[0].Name != "First" || rows[1].Name != "Third" {
		t.Errorf("sweep order wrong: %v, %v", rows[0].Name, rows[1].Name)
	}
	if !source.rows[3].Synced {
		t.Error("swept expense not marked synced")
	}
}
