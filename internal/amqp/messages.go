package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// BackupMessage tells the worker that a transaction needs mirroring to
// the backup store. It carries only the id and operation; the worker
// fetches the full record from the database.
type BackupMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBackupMessage(id, op string) *BackupMessage {
	return &BackupMessage{ID: id, Op: op, Timestamp: time.Now()}
}

func (m *BackupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BackupMessageFromJSON(data []byte) (*BackupMessage, error) {
	var msg BackupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
