package models

import (
	"time"
)

// LeadStatus represents the lifecycle status of a lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusScheduled LeadStatus = "SCHEDULED"
	LeadStatusClosed    LeadStatus = "CLOSED"
	LeadStatusLost      LeadStatus = "LOST"
)

// IsTerminal reports whether the lead is no longer eligible for automated calls
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusClosed || s == LeadStatusLost
}

// LeadSource identifies where a lead came from
type LeadSource string

const (
	LeadSourceOpenHouse  LeadSource = "OPEN_HOUSE"
	LeadSourceWebsite    LeadSource = "WEBSITE"
	LeadSourceReferral   LeadSource = "REFERRAL"
	LeadSourceFacebook   LeadSource = "FACEBOOK"
	LeadSourceZillow     LeadSource = "ZILLOW"
	LeadSourceRealtorCom LeadSource = "REALTOR_COM"
	LeadSourceOther      LeadSource = "OTHER"
)

// Lead represents a sales lead owned by an agent
type Lead struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    string     `json:"user_id" gorm:"not null;index;type:uuid"`
	FirstName string     `json:"first_name" gorm:"type:varchar(255);not null"`
	LastName  string     `json:"last_name" gorm:"type:varchar(255);not null"`
	Email     string     `json:"email" gorm:"type:varchar(255);not null;index"`
	Phone     string     `json:"phone" gorm:"type:varchar(50);not null"`
	Source    LeadSource `json:"source" gorm:"type:varchar(50);not null;default:'OTHER';index"`
	Status    LeadStatus `json:"status" gorm:"type:varchar(20);not null;default:'NEW';index"`
	Budget    *int64     `json:"budget,omitempty"`
	Timeline  string     `json:"timeline,omitempty" gorm:"type:varchar(100)"`
	Notes     string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relationships
	User          User           `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Calls         []Call         `json:"calls,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:CASCADE"`
	LeadCampaigns []LeadCampaign `json:"lead_campaigns,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Lead model
func (Lead) TableName() string {
	return "leads"
}

// CreateLeadRequest represents the request to create a new lead
type CreateLeadRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"John"`
	LastName  string `json:"last_name" binding:"required" example:"Smith"`
	Email     string `json:"email" binding:"required,email" example:"john@example.com"`
	Phone     string `json:"phone" binding:"required" example:"+15551234567"`
	Source    string `json:"source" example:"OPEN_HOUSE"`
	Budget    *int64 `json:"budget,omitempty" example:"450000"`
	Timeline  string `json:"timeline,omitempty" example:"3-6 months"`
	Notes     string `json:"notes,omitempty" example:"Interested in single-family homes"`
}

// UpdateLeadRequest represents the request to update a lead
type UpdateLeadRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"John"`
	LastName  string `json:"last_name" binding:"required" example:"Smith"`
	Email     string `json:"email" binding:"required,email" example:"john@example.com"`
	Phone     string `json:"phone" binding:"required" example:"+15551234567"`
	Source    string `json:"source" example:"WEBSITE"`
	Status    string `json:"status" example:"CONTACTED"`
	Budget    *int64 `json:"budget,omitempty" example:"450000"`
	Timeline  string `json:"timeline,omitempty" example:"1-3 months"`
	Notes     string `json:"notes,omitempty"`
}

// LeadResponse represents the response for lead operations
type LeadResponse struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	FirstName string `json:"first_name" example:"John"`
	LastName  string `json:"last_name" example:"Smith"`
	Email     string `json:"email" example:"john@example.com"`
	Phone     string `json:"phone" example:"+15551234567"`
	Source    string `json:"source" example:"OPEN_HOUSE"`
	Status    string `json:"status" example:"NEW"`
	Budget    *int64 `json:"budget,omitempty" example:"450000"`
	Timeline  string `json:"timeline,omitempty" example:"3-6 months"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt string `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}
