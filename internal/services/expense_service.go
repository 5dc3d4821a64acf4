// Package services composes the local SQLite store with the AMQP sync queue
// for the sqlite deployment variant.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"spendbot/internal/amqp"
	"spendbot/internal/core"
	"spendbot/internal/sheets"
	"spendbot/internal/storage"
)

// ExpenseService appends expenses locally and asks the worker to forward
// them to the spreadsheet. The local write is the durability guarantee; a
// failed publish is logged and picked up by the worker's startup sweep.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

var _ sheets.ExpenseWriter = (*ExpenseService)(nil)

func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Append implements sheets.ExpenseWriter.
func (s *ExpenseService) Append(ctx context.Context, e core.Expense) (string, error) {
	ref, err := s.storage.Append(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse expense ID", "ref", ref, "error", err)
		return ref, nil // local save succeeded
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return ref, nil
	}

	if err := s.amqpClient.PublishSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
		// Don't fail the append, the expense is saved locally.
	}

	return ref, nil
}

// Close closes both storage and AMQP connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
