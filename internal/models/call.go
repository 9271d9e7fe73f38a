package models

import (
	"time"
)

// CallStatus represents the lifecycle status of a call attempt
type CallStatus string

const (
	CallStatusPending    CallStatus = "PENDING"
	CallStatusInProgress CallStatus = "IN_PROGRESS"
	CallStatusCompleted  CallStatus = "COMPLETED"
	CallStatusFailed     CallStatus = "FAILED"
	CallStatusCancelled  CallStatus = "CANCELLED"
)

// IsTerminal reports whether the call has reached a final status
func (s CallStatus) IsTerminal() bool {
	return s == CallStatusCompleted || s == CallStatusFailed || s == CallStatusCancelled
}

// CallOutcome is the classified result of a completed call
type CallOutcome string

const (
	CallOutcomeQualified            CallOutcome = "QUALIFIED"
	CallOutcomeNotQualified         CallOutcome = "NOT_QUALIFIED"
	CallOutcomeCallbackRequested    CallOutcome = "CALLBACK_REQUESTED"
	CallOutcomeAppointmentScheduled CallOutcome = "APPOINTMENT_SCHEDULED"
	CallOutcomeNoAnswer             CallOutcome = "NO_ANSWER"
	CallOutcomeVoicemail            CallOutcome = "VOICEMAIL"
	CallOutcomeWrongNumber          CallOutcome = "WRONG_NUMBER"
)

// Call represents one outbound call attempt for a lead
type Call struct {
	ID     string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	LeadID string     `json:"lead_id" gorm:"not null;index;type:uuid"`
	Status CallStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`

	// BlandCallID is the provider's correlation id, set once the provider
	// accepts the call. It is the sole join key for inbound webhooks.
	BlandCallID *string `json:"bland_call_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`

	ScheduledAt  time.Time    `json:"scheduled_at" gorm:"not null;index"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Duration     *int         `json:"duration,omitempty"` // seconds
	RecordingURL string       `json:"recording_url,omitempty" gorm:"type:text"`
	Transcript   string       `json:"transcript,omitempty" gorm:"type:text"`
	Outcome      *CallOutcome `json:"outcome,omitempty" gorm:"type:varchar(30);index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Lead Lead `json:"lead,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Call model
func (Call) TableName() string {
	return "calls"
}

// InitiateCallRequest represents the request to manually initiate a call
type InitiateCallRequest struct {
	LeadID string `json:"lead_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// InitiateCallResponse represents the response after initiating a call
type InitiateCallResponse struct {
	CallID      string `json:"call_id" example:"550e8400-e29b-41d4-a716-446655440004"`
	BlandCallID string `json:"bland_call_id" example:"bl-9f2c1a"`
	Status      string `json:"status" example:"IN_PROGRESS"`
}

// CallResponse represents the response for call operations
type CallResponse struct {
	ID           string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440004"`
	LeadID       string  `json:"lead_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status       string  `json:"status" example:"COMPLETED"`
	BlandCallID  *string `json:"bland_call_id,omitempty" example:"bl-9f2c1a"`
	ScheduledAt  string  `json:"scheduled_at" example:"2025-01-09T10:30:00Z"`
	CompletedAt  *string `json:"completed_at,omitempty" example:"2025-01-09T10:35:00Z"`
	Duration     *int    `json:"duration,omitempty" example:"183"`
	RecordingURL string  `json:"recording_url,omitempty"`
	Transcript   string  `json:"transcript,omitempty"`
	Outcome      *string `json:"outcome,omitempty" example:"QUALIFIED"`
	CreatedAt    string  `json:"created_at" example:"2025-01-09T10:30:00Z"`
}

// ProcessCampaignsResponse represents the result of a scheduler sweep
type ProcessCampaignsResponse struct {
	Success        bool   `json:"success" example:"true"`
	ProcessedCount int    `json:"processed_count" example:"3"`
	Message        string `json:"message" example:"Processed 3 scheduled campaigns"`
}
