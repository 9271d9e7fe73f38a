package services

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// LeadService handles lead CRUD for an agent's book of business
type LeadService struct {
	leadRepo       *repository.LeadRepository
	enrollmentRepo *repository.LeadCampaignRepository
}

// NewLeadService creates a new lead service
func NewLeadService(leadRepo *repository.LeadRepository, enrollmentRepo *repository.LeadCampaignRepository) *LeadService {
	return &LeadService{leadRepo: leadRepo, enrollmentRepo: enrollmentRepo}
}

var leadSources = map[models.LeadSource]bool{
	models.LeadSourceOpenHouse:  true,
	models.LeadSourceWebsite:    true,
	models.LeadSourceReferral:   true,
	models.LeadSourceFacebook:   true,
	models.LeadSourceZillow:     true,
	models.LeadSourceRealtorCom: true,
	models.LeadSourceOther:      true,
}

var leadStatuses = map[models.LeadStatus]bool{
	models.LeadStatusNew:       true,
	models.LeadStatusContacted: true,
	models.LeadStatusQualified: true,
	models.LeadStatusScheduled: true,
	models.LeadStatusClosed:    true,
	models.LeadStatusLost:      true,
}

// parseLeadSource validates a source string, defaulting empty to OTHER
func parseLeadSource(source string) (models.LeadSource, error) {
	if source == "" {
		return models.LeadSourceOther, nil
	}
	s := models.LeadSource(source)
	if !leadSources[s] {
		return "", apperrors.Wrap(apperrors.ErrValidation, "invalid lead source %q", source)
	}
	return s, nil
}

// parseLeadStatus validates a status string, defaulting empty to NEW
func parseLeadStatus(status string) (models.LeadStatus, error) {
	if status == "" {
		return models.LeadStatusNew, nil
	}
	s := models.LeadStatus(status)
	if !leadStatuses[s] {
		return "", apperrors.Wrap(apperrors.ErrValidation, "invalid lead status %q", status)
	}
	return s, nil
}

// CreateLead creates a lead owned by the given user
func (s *LeadService) CreateLead(userID string, req *models.CreateLeadRequest) (*models.Lead, error) {
	source, err := parseLeadSource(req.Source)
	if err != nil {
		return nil, err
	}

	lead := &models.Lead{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    source,
		Status:    models.LeadStatusNew,
		Budget:    req.Budget,
		Timeline:  req.Timeline,
		Notes:     req.Notes,
	}
	if err := s.leadRepo.Create(lead); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to create lead: %v", err)
	}
	return lead, nil
}

// GetLeads lists a user's leads with optional status and source filters
func (s *LeadService) GetLeads(userID, status, source string, page, pageSize int) ([]*models.Lead, int64, error) {
	if status != "" {
		if _, err := parseLeadStatus(status); err != nil {
			return nil, 0, err
		}
	}
	if source != "" {
		if _, err := parseLeadSource(source); err != nil {
			return nil, 0, err
		}
	}

	leads, total, err := s.leadRepo.GetByUserID(userID, status, source, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to list leads: %v", err)
	}
	return leads, total, nil
}

// GetLead retrieves one of the user's leads
func (s *LeadService) GetLead(userID, leadID string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByUserIDAndID(userID, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "lead %s not found", leadID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load lead: %v", err)
	}
	return lead, nil
}

// UpdateLead updates a lead. Moving a lead to CLOSED or LOST also ends its
// active campaign enrollments so no further automated calls go out.
func (s *LeadService) UpdateLead(userID, leadID string, req *models.UpdateLeadRequest) (*models.Lead, error) {
	lead, err := s.GetLead(userID, leadID)
	if err != nil {
		return nil, err
	}

	source, err := parseLeadSource(req.Source)
	if err != nil {
		return nil, err
	}
	status := lead.Status
	if req.Status != "" {
		status, err = parseLeadStatus(req.Status)
		if err != nil {
			return nil, err
		}
	}

	lead.FirstName = req.FirstName
	lead.LastName = req.LastName
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.Source = source
	lead.Status = status
	lead.Budget = req.Budget
	lead.Timeline = req.Timeline
	lead.Notes = req.Notes

	if err := s.leadRepo.Update(lead); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to update lead: %v", err)
	}

	if status.IsTerminal() {
		if err := s.enrollmentRepo.DeactivateByLeadID(lead.ID); err != nil {
			logrus.Errorf("Failed to deactivate enrollments for %s lead %s: %v", status, lead.ID, err)
		}
	}
	return lead, nil
}

// DeleteLead removes one of the user's leads
func (s *LeadService) DeleteLead(userID, leadID string) error {
	err := s.leadRepo.DeleteByUserIDAndID(userID, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrNotFound, "lead %s not found", leadID)
		}
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete lead: %v", err)
	}
	return nil
}
