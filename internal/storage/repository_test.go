package storage

import (
	"context"
	"path/filepath"
	"testing"

	"spendbot/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := core.Expense{
		Date:     core.NewDate(2025, 1, 15),
		Name:     "Chicken Rice",
		Category: core.Food,
		Amount:   12.9,
	}

	ref, err := repo.Append(ctx, e)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if ref != "1" {
		t.Errorf("ref = %q, want \"1\"", ref)
	}

	stored, err := repo.GetExpense(ctx, 1)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if stored.Synced {
		t.Error("new expense should not be marked synced")
	}
	got := stored.Expense
	if got.Name != e.Name || got.Category != e.Category || got.Amount != e.Amount {
		t.Errorf("stored expense = %+v, want %+v", got, e)
	}
	if got.Date.String() != "15/01/2025" {
		t.Errorf("stored date = %q, want 15/01/2025", got.Date.String())
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	bad := core.Expense{Date: core.NewDate(2025, 1, 15), Name: "x", Category: "Nope", Amount: 1}
	if _, err := repo.Append(context.Background(), bad); err == nil {
		t.Fatal("append of invalid expense succeeded")
	}
}

func TestUnsyncedLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"First", "Second", "Third"} {
		e := core.Expense{Date: core.NewDate(2025, 2, 1), Name: name, Category: core.Others, Amount: 1}
		if _, err := repo.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}

	pending, err := repo.ListUnsynced(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnsynced failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d rows, want 3", len(pending))
	}
	// Oldest first keeps sheet order aligned with arrival order.
	if pending[0].Expense.Name != "First" || pending[2].Expense.Name != "Third" {
		t.Errorf("unexpected order: %v, %v", pending[0].Expense.Name, pending[2].Expense.Name)
	}

	if err := repo.MarkSynced(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	pending, err = repo.ListUnsynced(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnsynced failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending after sync = %d rows, want 2", len(pending))
	}

	if got, err := repo.ListUnsynced(ctx, 1); err != nil || len(got) != 1 {
		t.Errorf("limit not applied: %d rows, err %v", len(got), err)
	}
}
