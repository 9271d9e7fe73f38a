package repository

import (
	"time"

	"github.com/voicereachhq/voicereach-backend/internal/models"

	"gorm.io/gorm"
)

type LeadCampaignRepository struct {
	db *gorm.DB
}

func NewLeadCampaignRepository(db *gorm.DB) *LeadCampaignRepository {
	return &LeadCampaignRepository{db: db}
}

// Create creates a new enrollment
func (r *LeadCampaignRepository) Create(lc *models.LeadCampaign) error {
	return r.db.Create(lc).Error
}

// GetByLeadAndCampaign retrieves the enrollment for a (lead, campaign) pair
func (r *LeadCampaignRepository) GetByLeadAndCampaign(leadID, campaignID string) (*models.LeadCampaign, error) {
	var lc models.LeadCampaign
	err := r.db.Where("lead_id = ? AND campaign_id = ?", leadID, campaignID).First(&lc).Error
	if err != nil {
		return nil, err
	}
	return &lc, nil
}

// FindDue returns active enrollments whose next scheduled call is at or
// before now, with lead and campaign steps preloaded. Ordered by schedule
// time for determinism; no cross-lead ordering is guaranteed to callers.
func (r *LeadCampaignRepository) FindDue(now time.Time) ([]*models.LeadCampaign, error) {
	var due []*models.LeadCampaign
	err := r.db.Where("is_active = ? AND next_scheduled_call IS NOT NULL AND next_scheduled_call <= ?", true, now).
		Preload("Lead").
		Preload("Campaign").
		Preload("Campaign.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Order("next_scheduled_call ASC").
		Find(&due).Error
	return due, err
}

// Claim atomically takes ownership of a due enrollment by clearing its
// schedule. Only one of any number of concurrent sweeps can win the
// conditional update, which is what makes dispatch at-most-once per due
// interval. Returns false when another sweep already claimed the row or the
// enrollment is no longer due.
func (r *LeadCampaignRepository) Claim(id string, now time.Time) (bool, error) {
	result := r.db.Model(&models.LeadCampaign{}).
		Where("id = ? AND is_active = ? AND next_scheduled_call IS NOT NULL AND next_scheduled_call <= ?", id, true, now).
		Updates(map[string]interface{}{
			"next_scheduled_call": nil,
			"last_attempted_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Advance moves a claimed enrollment to the next step and schedules it
func (r *LeadCampaignRepository) Advance(id string, nextStep int, nextCall time.Time) error {
	return r.db.Model(&models.LeadCampaign{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_step":        nextStep,
			"next_scheduled_call": nextCall,
		}).Error
}

// Restore puts a claimed enrollment's schedule back after a rejected call,
// leaving the step pointer untouched so the next sweep retries it.
func (r *LeadCampaignRepository) Restore(id string, at *time.Time) error {
	return r.db.Model(&models.LeadCampaign{}).Where("id = ?", id).
		Update("next_scheduled_call", at).Error
}

// Deactivate ends an enrollment and clears its schedule
func (r *LeadCampaignRepository) Deactivate(id string) error {
	return r.db.Model(&models.LeadCampaign{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":           false,
			"next_scheduled_call": nil,
		}).Error
}

// GetByCampaignID lists enrollments for a campaign
func (r *LeadCampaignRepository) GetByCampaignID(campaignID string) ([]*models.LeadCampaign, error) {
	var enrollments []*models.LeadCampaign
	err := r.db.Where("campaign_id = ?", campaignID).Preload("Lead").Find(&enrollments).Error
	return enrollments, err
}

// DeactivateByLeadID ends every active enrollment for a lead
func (r *LeadCampaignRepository) DeactivateByLeadID(leadID string) error {
	return r.db.Model(&models.LeadCampaign{}).Where("lead_id = ? AND is_active = ?", leadID, true).
		Updates(map[string]interface{}{
			"is_active":           false,
			"next_scheduled_call": nil,
		}).Error
}
