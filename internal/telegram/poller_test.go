package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"spendbot/internal/core"
	"spendbot/internal/extract"
	"spendbot/internal/pipeline"
	"spendbot/internal/sheets/memory"
)

// batchSource serves one batch of updates, then cancels the poll loop.
type batchSource struct {
	batch  []Update
	cancel context.CancelFunc
	served bool

	offsets []int64
}

func (s *batchSource) GetUpdates(_ context.Context, offset int64, _ time.Duration) ([]Update, error) {
	s.offsets = append(s.offsets, offset)
	if s.served {
		s.cancel()
		return nil, nil
	}
	s.served = true
	return s.batch, nil
}

// failingSource always errors; the context is cancelled shortly after the
// first error so the poller is mid-backoff when shutdown arrives.
type failingSource struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *failingSource) GetUpdates(_ context.Context, _ int64, _ time.Duration) ([]Update, error) {
	s.once.Do(func() {
		time.AfterFunc(20*time.Millisecond, s.cancel)
	})
	return nil, errors.New("telegram unreachable")
}

func TestPollerBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &fakeSender{}
	parser := &fixedParser{}
	offsets := NewOffsetStore(filepath.Join(t.TempDir(), "offset.json"))
	p := NewPoller(&failingSource{cancel: cancel}, sender, pipeline.New(parser, memory.New(), time.UTC), offsets, time.Second)

	start := time.Now()
	if err := p.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	// Shutdown must not wait out the full error backoff.
	if elapsed := time.Since(start); elapsed >= errorBackoff {
		t.Errorf("Run took %v to stop, want less than %v", elapsed, errorBackoff)
	}
}

func TestPollerProcessesBatchInOrderAndAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Now().Unix()
	source := &batchSource{
		cancel: cancel,
		batch: []Update{
			{UpdateID: 10, Message: &Message{Date: now, Text: "/start", Chat: Chat{ID: 1}}},
			{UpdateID: 11, Message: &Message{Date: now, Text: "12.9 chicken rice", Chat: Chat{ID: 1}}},
			{UpdateID: 12, Message: &Message{Date: now, Chat: Chat{ID: 1}}}, // non-text
		},
	}
	sender := &fakeSender{}
	parser := &fixedParser{out: extract.Expense{Name: "Chicken Rice", Category: core.Food, Amount: 12.9}}
	store := memory.New()
	offsets := NewOffsetStore(filepath.Join(t.TempDir(), "offset.json"))

	p := NewPoller(source, sender, pipeline.New(parser, store, time.UTC), offsets, time.Second)
	if err := p.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d replies, want 2 (welcome + confirmation): %q", len(msgs), msgs)
	}
	if msgs[0] != WelcomeMessage {
		t.Errorf("first reply = %q, want welcome message", msgs[0])
	}
	if msgs[1] != "✅ *Chicken Rice* (Food) — $12.90" {
		t.Errorf("second reply = %q", msgs[1])
	}

	if got := len(store.Expenses()); got != 1 {
		t.Errorf("stored %d expenses, want 1", got)
	}

	// The cursor points past the last update, including the skipped non-text
	// one, so a restart does not replay anything.
	if got := offsets.Load(); got != 13 {
		t.Errorf("persisted offset = %d, want 13", got)
	}

	// The second poll resumed from the advanced offset.
	if len(source.offsets) < 2 || source.offsets[1] != 13 {
		t.Errorf("poll offsets = %v, want second poll at 13", source.offsets)
	}
}
