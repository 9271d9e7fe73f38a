package services

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// CampaignService handles campaign and step management
type CampaignService struct {
	campaignRepo *repository.CampaignRepository
}

// NewCampaignService creates a new campaign service
func NewCampaignService(campaignRepo *repository.CampaignRepository) *CampaignService {
	return &CampaignService{campaignRepo: campaignRepo}
}

// buildSteps numbers the requested steps 1..N in the order given
func buildSteps(reqs []models.CampaignStepRequest) []models.CampaignStep {
	steps := make([]models.CampaignStep, len(reqs))
	for i, req := range reqs {
		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}
		steps[i] = models.CampaignStep{
			StepNumber:     i + 1,
			DelayMinutes:   req.DelayMinutes,
			ScriptTemplate: req.ScriptTemplate,
			IsActive:       active,
		}
	}
	return steps
}

// CreateCampaign creates a campaign with its step sequence
func (s *CampaignService) CreateCampaign(userID string, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	campaign := &models.Campaign{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    active,
		Steps:       buildSteps(req.Steps),
	}
	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to create campaign: %v", err)
	}

	logrus.Infof("Created campaign %s with %d steps for user %s", campaign.ID, len(campaign.Steps), userID)
	return campaign, nil
}

// GetCampaigns lists a user's campaigns, steps included
func (s *CampaignService) GetCampaigns(userID string) ([]*models.Campaign, error) {
	campaigns, err := s.campaignRepo.GetByUserID(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list campaigns: %v", err)
	}
	return campaigns, nil
}

// GetCampaign retrieves one of the user's campaigns
func (s *CampaignService) GetCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "campaign %s not found", campaignID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load campaign: %v", err)
	}
	return campaign, nil
}

// UpdateCampaign updates a campaign. When the request carries steps the
// whole sequence is replaced and renumbered; enrollments keep their step
// pointer, so a shortened sequence ends those enrollments on the next sweep.
func (s *CampaignService) UpdateCampaign(userID, campaignID string, req *models.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	campaign.Name = req.Name
	campaign.Description = req.Description
	if req.IsActive != nil {
		campaign.IsActive = *req.IsActive
	}
	campaign.Steps = nil

	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to update campaign: %v", err)
	}

	if req.Steps != nil {
		if err := s.campaignRepo.ReplaceSteps(campaign.ID, buildSteps(req.Steps)); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to replace campaign steps: %v", err)
		}
	}

	return s.GetCampaign(userID, campaignID)
}

// DeleteCampaign removes one of the user's campaigns and its steps
func (s *CampaignService) DeleteCampaign(userID, campaignID string) error {
	err := s.campaignRepo.DeleteByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrNotFound, "campaign %s not found", campaignID)
		}
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete campaign: %v", err)
	}
	return nil
}

// EnrolledCount counts enrollments for a campaign
func (s *CampaignService) EnrolledCount(campaignID string) int64 {
	count, err := s.campaignRepo.CountEnrollments(campaignID)
	if err != nil {
		logrus.Warnf("Failed to count enrollments for campaign %s: %v", campaignID, err)
		return 0
	}
	return count
}
