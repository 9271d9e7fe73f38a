package models

import (
	"time"
)

// Campaign represents an outbound call follow-up sequence owned by a user
type Campaign struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      string `json:"user_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	IsActive    bool   `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User          User           `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Steps         []CampaignStep `json:"steps,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	LeadCampaigns []LeadCampaign `json:"lead_campaigns,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// StepByNumber returns the step with the exact step number, or nil.
// Gaps in the numbering terminate a sequence rather than skip ahead.
func (c *Campaign) StepByNumber(n int) *CampaignStep {
	for i := range c.Steps {
		if c.Steps[i].StepNumber == n {
			return &c.Steps[i]
		}
	}
	return nil
}

// FirstStep returns the step with the lowest step number, or nil
func (c *Campaign) FirstStep() *CampaignStep {
	var first *CampaignStep
	for i := range c.Steps {
		if first == nil || c.Steps[i].StepNumber < first.StepNumber {
			first = &c.Steps[i]
		}
	}
	return first
}

// CampaignStep represents one scripted call within a campaign sequence
type CampaignStep struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CampaignID     string `json:"campaign_id" gorm:"not null;index;type:uuid"`
	StepNumber     int    `json:"step_number" gorm:"not null"`
	DelayMinutes   int    `json:"delay_minutes" gorm:"not null;default:0"`
	ScriptTemplate string `json:"script_template" gorm:"type:text;not null"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CampaignStep model
func (CampaignStep) TableName() string {
	return "campaign_steps"
}

// CampaignStepRequest represents one step in a create/update campaign request
type CampaignStepRequest struct {
	ScriptTemplate string `json:"script_template" binding:"required" example:"Hi {firstName}, this is a follow-up call..."`
	DelayMinutes   int    `json:"delay_minutes" binding:"min=0" example:"60"`
	IsActive       *bool  `json:"is_active,omitempty" example:"true"`
}

// CreateCampaignRequest represents the request to create a new campaign.
// Steps are numbered 1..N in the order given.
type CreateCampaignRequest struct {
	Name        string                `json:"name" binding:"required" example:"Open house follow-up"`
	Description string                `json:"description,omitempty" example:"Three-call sequence for open house visitors"`
	IsActive    *bool                 `json:"is_active,omitempty" example:"true"`
	Steps       []CampaignStepRequest `json:"steps" binding:"required,min=1,dive"`
}

// UpdateCampaignRequest represents the request to update a campaign.
// When Steps is non-nil the existing sequence is replaced.
type UpdateCampaignRequest struct {
	Name        string                `json:"name" binding:"required" example:"Open house follow-up"`
	Description string                `json:"description,omitempty"`
	IsActive    *bool                 `json:"is_active,omitempty" example:"true"`
	Steps       []CampaignStepRequest `json:"steps,omitempty" binding:"omitempty,min=1,dive"`
}

// CampaignResponse represents the response for campaign operations
type CampaignResponse struct {
	ID            string                 `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID        string                 `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name          string                 `json:"name" example:"Open house follow-up"`
	Description   string                 `json:"description,omitempty"`
	IsActive      bool                   `json:"is_active" example:"true"`
	EnrolledCount int64                  `json:"enrolled_count" example:"12"`
	Steps         []CampaignStepResponse `json:"steps"`
	CreatedAt     string                 `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt     string                 `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// CampaignStepResponse represents one step in a campaign response
type CampaignStepResponse struct {
	ID             string `json:"id" example:"550e8400-e29b-41d4-a716-446655440002"`
	StepNumber     int    `json:"step_number" example:"1"`
	DelayMinutes   int    `json:"delay_minutes" example:"0"`
	ScriptTemplate string `json:"script_template" example:"Hi {firstName}..."`
	IsActive       bool   `json:"is_active" example:"true"`
}
