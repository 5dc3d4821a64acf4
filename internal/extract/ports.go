// Package extract defines the port for turning free-text purchase messages
// into structured expense fields.
package extract

import (
	"context"
	"errors"
	"fmt"

	"spendbot/internal/core"
)

// Expense holds the fields the extractor is responsible for. The date is
// added later by the orchestrator from message metadata.
type Expense struct {
	Name     string
	Category core.Category
	Amount   float64
}

// Parser turns a raw user message into structured expense fields.
// One message produces exactly one extraction attempt, no retries.
type Parser interface {
	Parse(ctx context.Context, text string) (Expense, error)
}

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrMissingName   = errors.New("model output missing name")
	ErrMissingAmount = errors.New("model output missing amount")
	ErrBadAmount     = errors.New("model output amount is not numeric")
)

// Error is an extraction failure. Raw carries the offending model payload for
// diagnostics when there is one.
type Error struct {
	Raw string
	Err error
}

func (e *Error) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("extract: %v", e.Err)
	}
	return fmt.Sprintf("extract: %v (raw: %s)", e.Err, e.Raw)
}

func (e *Error) Unwrap() error { return e.Err }
