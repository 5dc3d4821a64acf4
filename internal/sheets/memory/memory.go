// Package memory is an in-memory expense store used in tests and as the
// default backend when nothing else is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendbot/internal/core"
	"spendbot/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []core.Expense

	// rule mirrors the category dropdown constraint a real sheet would
	// carry; validations counts how often it was applied so tests can
	// assert the operation stays idempotent.
	rule        []core.Category
	validations int
}

var _ sheets.ExpenseWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	s.applyValidation()
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// applyValidation mirrors the best-effort dropdown constraint: reapplying it
// overwrites the rule with the same values every time.
func (s *Store) applyValidation() {
	s.rule = append([]core.Category(nil), core.Taxonomy...)
	s.validations++
}

// Expenses returns a copy of everything appended, in insertion order.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}

// Row returns the i-th stored record in sink column order:
// date, name, category, amount.
func (s *Store) Row(i int) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return nil, fmt.Errorf("row %d out of range", i)
	}
	e := s.items[i]
	return []any{e.Date.String(), e.Name, string(e.Category), e.Amount}, nil
}

// Rule returns the current category constraint on the category column.
func (s *Store) Rule() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.rule...)
}

// Validations reports how many times the dropdown constraint was applied.
func (s *Store) Validations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validations
}
