package dto

import "github.com/google/uuid"

// Record lifecycle event types carried over NATS and WebSocket.
const (
	EventRecordCreated = "record_created"
	EventRecordUpdated = "record_updated"
	EventRecordDeleted = "record_deleted"
)

// RecordEvent is a record lifecycle notification. Data is empty for
// deletions.
type RecordEvent struct {
	Type     string               `json:"type"`
	RecordID uuid.UUID            `json:"record_id"`
	Data     *ImageRecordResponse `json:"data,omitempty"`
}
