package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message actions. Sync covers both new rows and re-sync after an error;
// delete asks the worker to remove the remote row.
const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// TransactionSyncMessage is the envelope on the sync queue. It carries only
// the transaction id and version; the worker fetches the full row from the
// database so the queue never holds stale data.
type TransactionSyncMessage struct {
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id string, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		Action:    ActionSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func NewDeleteMessage(id string, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		Action:    ActionDelete,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action == "" {
		// Older producers sent untagged sync messages.
		msg.Action = ActionSync
	}
	if msg.Action != ActionSync && msg.Action != ActionDelete {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message missing transaction id")
	}
	return &msg, nil
}
