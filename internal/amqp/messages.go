package amqp

import (
	"encoding/json"
	"time"
)

// SyncMessage asks the worker to forward one locally stored expense to the
// spreadsheet. It carries only the row ID; the worker reads the full row from
// SQLite so the queue never holds stale expense data.
type SyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id int64) *SyncMessage {
	return &SyncMessage{ID: id, Timestamp: time.Now()}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
