package repository

import (
	"time"

	"github.com/voicereachhq/voicereach-backend/internal/models"

	"gorm.io/gorm"
)

type CallEventRepository struct {
	db *gorm.DB
}

func NewCallEventRepository(db *gorm.DB) *CallEventRepository {
	return &CallEventRepository{db: db}
}

// Create persists a call lifecycle event
func (r *CallEventRepository) Create(event *models.CallEvent) error {
	return r.db.Create(event).Error
}

// GetByLeadID lists events for a lead, newest first
func (r *CallEventRepository) GetByLeadID(leadID string, limit, offset int) ([]*models.CallEvent, error) {
	var events []*models.CallEvent
	err := r.db.Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, err
}

// GetByCallID lists events for a call in delivery order
func (r *CallEventRepository) GetByCallID(callID string) ([]*models.CallEvent, error) {
	var events []*models.CallEvent
	err := r.db.Where("call_id = ?", callID).Order("created_at ASC").Find(&events).Error
	return events, err
}

// DeleteOlderThan removes events past the retention window
func (r *CallEventRepository) DeleteOlderThan(cutoff time.Time) error {
	return r.db.Where("created_at < ?", cutoff).Delete(&models.CallEvent{}).Error
}
