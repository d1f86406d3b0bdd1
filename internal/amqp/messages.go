package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to run a sync batch. It carries no
// batch id; the worker assigns one when the batch starts.
type SyncRequestMessage struct {
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewSyncRequestMessage creates a request attributed to its origin
// ("api", "cli", "cron")
func NewSyncRequestMessage(requestedBy string) *SyncRequestMessage {
	return &SyncRequestMessage{
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestMessageFromJSON creates a message from JSON bytes
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SyncCompletedMessage reports a finished batch to anyone listening on
// the completed queue.
type SyncCompletedMessage struct {
	BatchID   string        `json:"batch_id"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewSyncCompletedMessage creates a completion event for one batch
func NewSyncCompletedMessage(batchID string, created, updated, skipped, failed int, duration time.Duration) *SyncCompletedMessage {
	return &SyncCompletedMessage{
		BatchID:   batchID,
		Created:   created,
		Updated:   updated,
		Skipped:   skipped,
		Failed:    failed,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncCompletedMessageFromJSON creates a message from JSON bytes
func SyncCompletedMessageFromJSON(data []byte) (*SyncCompletedMessage, error) {
	var msg SyncCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
