package telegram

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOffsetStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_offset.json")
	s := NewOffsetStore(path)

	if got := s.Load(); got != 0 {
		t.Errorf("Load() on first run = %d, want 0", got)
	}

	if err := s.Save(42); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := s.Load(); got != 42 {
		t.Errorf("Load() = %d, want 42", got)
	}

	// Overwrite, as happens after every processed update.
	if err := s.Save(43); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := s.Load(); got != 43 {
		t.Errorf("Load() = %d, want 43", got)
	}
}

func TestOffsetStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_offset.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := NewOffsetStore(path).Load(); got != 0 {
		t.Errorf("Load() on corrupt file = %d, want 0", got)
	}
}
