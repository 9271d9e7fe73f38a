package repository

import (
	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CallRepository struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

// Create creates a new call record
func (r *CallRepository) Create(call *models.Call) error {
	return r.db.Create(call).Error
}

// Save persists all fields of a call record
func (r *CallRepository) Save(call *models.Call) error {
	return r.db.Save(call).Error
}

// GetByID retrieves a call by ID with its lead
func (r *CallRepository) GetByID(id string) (*models.Call, error) {
	var call models.Call
	err := r.db.Preload("Lead").First(&call, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// GetByBlandCallIDForUpdate resolves a call by provider correlation id,
// locking the row so concurrent webhook deliveries for the same call id are
// serialized. Must run inside Transaction.
func (r *CallRepository) GetByBlandCallIDForUpdate(blandCallID string) (*models.Call, error) {
	var call models.Call
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("bland_call_id = ?", blandCallID).
		First(&call).Error
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// Transaction runs fn against a repository bound to one database transaction
func (r *CallRepository) Transaction(fn func(txRepo *CallRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&CallRepository{db: tx})
	})
}

// GetByUserID lists calls for leads owned by a user, newest first
func (r *CallRepository) GetByUserID(userID string, status string, page, pageSize int) ([]*models.Call, int64, error) {
	var calls []*models.Call
	var total int64

	query := r.db.Model(&models.Call{}).
		Joins("JOIN leads ON leads.id = calls.lead_id").
		Where("leads.user_id = ?", userID)
	if status != "" {
		query = query.Where("calls.status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Lead").
		Order("calls.created_at DESC").
		Offset(utils.CalculateOffset(page, pageSize)).
		Limit(pageSize).
		Find(&calls).Error
	return calls, total, err
}

// GetByLeadID lists calls for one lead, newest first
func (r *CallRepository) GetByLeadID(leadID string) ([]*models.Call, error) {
	var calls []*models.Call
	err := r.db.Where("lead_id = ?", leadID).Order("created_at DESC").Find(&calls).Error
	return calls, err
}
