package models

import (
	"time"
)

// Call lifecycle event types published on the call_events queue
const (
	CallEventInitiated = "call.initiated"
	CallEventFailed    = "call.failed"
	CallEventCompleted = "call.completed"
	CallEventUpdated   = "call.updated"
)

// CallEvent is one persisted entry in a call's lifecycle history. Events are
// published to RabbitMQ by the scheduler and webhook classifier, consumed by
// the call event service and streamed to dashboards over SSE.
type CallEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CallID    string    `json:"call_id" gorm:"type:uuid;not null;index"`
	LeadID    string    `json:"lead_id" gorm:"type:uuid;not null;index"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;index"`
	EventType string    `json:"event_type" gorm:"type:varchar(50);not null;index" example:"call.initiated"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null" example:"IN_PROGRESS"`
	Message   string    `json:"message" gorm:"type:text"`
	Metadata  JSON      `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the CallEvent model
func (CallEvent) TableName() string {
	return "call_events"
}

// CallEventMessage is the wire format published to the call_events queue
type CallEventMessage struct {
	EventType  string                 `json:"event_type"`
	CallID     string                 `json:"call_id"`
	LeadID     string                 `json:"lead_id"`
	UserID     string                 `json:"user_id"`
	Status     string                 `json:"status"`
	Message    string                 `json:"message,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
