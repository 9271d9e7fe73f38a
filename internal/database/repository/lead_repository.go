package repository

import (
	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/utils"

	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create creates a new lead
func (r *LeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

// CreateBatch creates multiple leads in one transaction
func (r *LeadRepository) CreateBatch(leads []*models.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	return r.db.Create(&leads).Error
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(id string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByUserIDAndID retrieves a lead by owner and lead ID
func (r *LeadRepository) GetByUserIDAndID(userID, leadID string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Where("user_id = ? AND id = ?", userID, leadID).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByUserID retrieves leads for a user with optional status/source filters
func (r *LeadRepository) GetByUserID(userID string, status, source string, page, pageSize int) ([]*models.Lead, int64, error) {
	var leads []*models.Lead
	var total int64

	query := r.db.Model(&models.Lead{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if source != "" {
		query = query.Where("source = ?", source)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").
		Offset(utils.CalculateOffset(page, pageSize)).
		Limit(pageSize).
		Find(&leads).Error
	return leads, total, err
}

// GetAllByUserID retrieves every lead for a user (export path)
func (r *LeadRepository) GetAllByUserID(userID string) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&leads).Error
	return leads, err
}

// Update updates a lead
func (r *LeadRepository) Update(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

// UpdateStatus updates only the status of a lead
func (r *LeadRepository) UpdateStatus(leadID string, status models.LeadStatus) error {
	return r.db.Model(&models.Lead{}).Where("id = ?", leadID).Update("status", status).Error
}

// DeleteByUserIDAndID deletes a lead by owner and lead ID
func (r *LeadRepository) DeleteByUserIDAndID(userID, leadID string) error {
	result := r.db.Where("user_id = ? AND id = ?", userID, leadID).Delete(&models.Lead{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
