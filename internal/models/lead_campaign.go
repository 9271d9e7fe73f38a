package models

import (
	"time"
)

// LeadCampaign represents a lead's enrollment and position in a campaign.
// Exactly one row exists per (lead, campaign) pair.
type LeadCampaign struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	LeadID     string `json:"lead_id" gorm:"not null;index;type:uuid;uniqueIndex:idx_lead_campaigns_lead_campaign"`
	CampaignID string `json:"campaign_id" gorm:"not null;index;type:uuid;uniqueIndex:idx_lead_campaigns_lead_campaign"`

	// CurrentStep is the step number about to fire (or just fired).
	CurrentStep       int        `json:"current_step" gorm:"not null;default:1"`
	NextScheduledCall *time.Time `json:"next_scheduled_call" gorm:"index"`
	IsActive          bool       `json:"is_active" gorm:"default:true;index"`

	// LastAttemptedAt records the most recent claim by the scheduler.
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Lead     Lead     `json:"lead,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:CASCADE"`
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the LeadCampaign model
func (LeadCampaign) TableName() string {
	return "lead_campaigns"
}

// EnrollLeadRequest represents the request to add a lead to a campaign
type EnrollLeadRequest struct {
	LeadID string `json:"lead_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// LeadCampaignResponse represents the response for enrollment operations
type LeadCampaignResponse struct {
	ID                string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440003"`
	LeadID            string  `json:"lead_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CampaignID        string  `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	CurrentStep       int     `json:"current_step" example:"1"`
	NextScheduledCall *string `json:"next_scheduled_call" example:"2025-01-09T11:30:00Z"`
	IsActive          bool    `json:"is_active" example:"true"`
	CreatedAt         string  `json:"created_at" example:"2025-01-09T10:30:00Z"`
}
