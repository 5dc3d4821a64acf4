package sheets

import (
	"context"

	"spendbot/internal/core"
)

// Ports for outbound expense storage adapters.
type (
	// ExpenseWriter appends exactly one row per call, in insertion order.
	// No dedup, no upsert. rowRef identifies the written row when the
	// backend can name one.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)
