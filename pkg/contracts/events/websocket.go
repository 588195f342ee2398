// Package events defines the WebSocket message contracts used to push
// treatment lifecycle updates to observing clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message.
type MessageType string

const (
	// Treatment lifecycle - the primary event type
	MessageTypeTreatmentStatus MessageType = "treatment:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// TreatmentStage is the lifecycle step a status event reports.
type TreatmentStage string

const (
	StageStarted   TreatmentStage = "started"
	StageMerge     TreatmentStage = "merge"
	StageReports   TreatmentStage = "reports"
	StageCompleted TreatmentStage = "completed"
	StageFailed    TreatmentStage = "failed"
)

// BaseMessage is the envelope shared by all WebSocket messages.
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage is a complete outbound message.
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// TreatmentStatus is the payload of a treatment:status message.
type TreatmentStatus struct {
	Treatment   string         `json:"treatment"`
	Stage       TreatmentStage `json:"stage"`
	ColumnLabel string         `json:"column_label,omitempty"`
	Message     string         `json:"message,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewTreatmentStatusMessage wraps a TreatmentStatus payload in its envelope.
func NewTreatmentStatusMessage(status TreatmentStatus) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTreatmentStatus,
			Timestamp: time.Now(),
		},
		Data: status,
	}
}
