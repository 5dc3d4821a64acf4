// Package pipeline orchestrates one inbound message: extract, persist,
// confirm. Transport adapters hand it a string and a timestamp and get a
// terminal reply back, nothing more.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spendbot/internal/core"
	"spendbot/internal/extract"
	"spendbot/internal/sheets"
)

// ErrNotExpense marks input the pipeline ignores: empty messages and
// /commands, which belong to the transport's command path.
var ErrNotExpense = errors.New("not an expense message")

// ProcessingError wraps whatever failed while handling one message, keeping
// the original input for the user-facing report.
type ProcessingError struct {
	Input string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process %q: %v", e.Input, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

type Pipeline struct {
	parser extract.Parser
	writer sheets.ExpenseWriter
	loc    *time.Location
}

// New wires the orchestrator. loc fixes the calendar-date zone for inbound
// timestamps; nil means UTC.
func New(parser extract.Parser, writer sheets.ExpenseWriter, loc *time.Location) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{parser: parser, writer: writer, loc: loc}
}

// Process runs the full pipeline for one message. sentAt is the message's
// origination time, so delayed processing still records the right date.
// It returns the stored record and the confirmation text.
func (p *Pipeline) Process(ctx context.Context, text string, sentAt time.Time) (core.Expense, string, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "/") {
		return core.Expense{}, "", ErrNotExpense
	}

	date := core.Date{Time: sentAt.In(p.loc)}

	parsed, err := p.parser.Parse(ctx, text)
	if err != nil {
		return core.Expense{}, "", &ProcessingError{Input: text, Err: err}
	}

	e := core.Expense{
		Date:     date,
		Name:     parsed.Name,
		Category: parsed.Category,
		Amount:   parsed.Amount,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, "", &ProcessingError{Input: text, Err: err}
	}

	ref, err := p.writer.Append(ctx, e)
	if err != nil {
		return core.Expense{}, "", &ProcessingError{Input: text, Err: fmt.Errorf("log expense: %w", err)}
	}

	slog.InfoContext(ctx, "Expense recorded",
		"name", e.Name,
		"category", e.Category,
		"amount", e.Amount,
		"date", e.Date.String(),
		"row", ref)

	return e, Confirmation(e), nil
}

// Handle is the terminal-response entry point for transport adapters: every
// non-command message gets some reply, success or failure, and nothing
// escalates past this boundary.
func (p *Pipeline) Handle(ctx context.Context, text string, sentAt time.Time) (string, bool) {
	_, reply, err := p.Process(ctx, text, sentAt)
	if errors.Is(err, ErrNotExpense) {
		return "", false
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process message", "text", text, "error", err)
		return FailureMessage(text, err), true
	}
	return reply, true
}

// Confirmation formats the success reply, amount fixed to two decimals.
func Confirmation(e core.Expense) string {
	return fmt.Sprintf("✅ *%s* (%s) — $%s", e.Name, e.Category, core.FormatAmount(e.Amount))
}

// FailureMessage embeds the original input and the error detail so the user
// can correct and resend.
func FailureMessage(text string, err error) string {
	detail := err.Error()
	var pe *ProcessingError
	if errors.As(err, &pe) {
		detail = pe.Err.Error()
	}
	return fmt.Sprintf("❌ Failed to process: _%s_\n\nError: %s", text, detail)
}
