package telegram

import (
	"encoding/json"
	"fmt"
	"os"
)

// OffsetStore persists the last-processed update cursor so a restart does not
// replay old messages. Only the long-poll adapter uses it; the webhook
// variant is stateless.
type OffsetStore struct {
	path string
}

type offsetFile struct {
	Offset int64 `json:"offset"`
}

func NewOffsetStore(path string) *OffsetStore {
	return &OffsetStore{path: path}
}

// Load returns the stored cursor, or 0 on the first run or an unreadable file.
func (s *OffsetStore) Load() int64 {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0
	}
	var f offsetFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0
	}
	return f.Offset
}

// Save writes the cursor after each processed update.
func (s *OffsetStore) Save(offset int64) error {
	data, err := json.Marshal(offsetFile{Offset: offset})
	if err != nil {
		return fmt.Errorf("marshal offset: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write offset file: %w", err)
	}
	return nil
}
