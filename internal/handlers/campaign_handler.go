package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services"
)

type CampaignHandler struct {
	campaignService  *services.CampaignService
	schedulerService *services.CampaignSchedulerService
}

func NewCampaignHandler(campaignService *services.CampaignService, schedulerService *services.CampaignSchedulerService) *CampaignHandler {
	return &CampaignHandler{
		campaignService:  campaignService,
		schedulerService: schedulerService,
	}
}

func (h *CampaignHandler) toCampaignResponse(campaign *models.Campaign) models.CampaignResponse {
	steps := make([]models.CampaignStepResponse, len(campaign.Steps))
	for i, step := range campaign.Steps {
		steps[i] = models.CampaignStepResponse{
			ID:             step.ID,
			StepNumber:     step.StepNumber,
			DelayMinutes:   step.DelayMinutes,
			ScriptTemplate: step.ScriptTemplate,
			IsActive:       step.IsActive,
		}
	}

	return models.CampaignResponse{
		ID:            campaign.ID,
		UserID:        campaign.UserID,
		Name:          campaign.Name,
		Description:   campaign.Description,
		IsActive:      campaign.IsActive,
		EnrolledCount: h.campaignService.EnrolledCount(campaign.ID),
		Steps:         steps,
		CreatedAt:     campaign.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     campaign.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description Create a call campaign with its step sequence
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCampaignRequest true "Campaign to create"
// @Success 201 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.campaignService.CreateCampaign(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toCampaignResponse(campaign))
}

// GetCampaigns godoc
// @Summary List campaigns
// @Description List the current user's campaigns with their steps
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	campaigns, err := h.campaignService.GetCampaigns(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.CampaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		responses[i] = h.toCampaignResponse(campaign)
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": responses})
}

// GetCampaign godoc
// @Summary Get a campaign
// @Description Get one of the current user's campaigns
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	campaign, err := h.campaignService.GetCampaign(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toCampaignResponse(campaign))
}

// UpdateCampaign godoc
// @Summary Update a campaign
// @Description Update a campaign; when steps are provided the sequence is replaced
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.UpdateCampaignRequest true "Updated campaign"
// @Success 200 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [put]
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.campaignService.UpdateCampaign(userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toCampaignResponse(campaign))
}

// DeleteCampaign godoc
// @Summary Delete a campaign
// @Description Delete one of the current user's campaigns and its steps
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	if err := h.campaignService.DeleteCampaign(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully"})
}

func toEnrollmentResponse(enrollment *models.LeadCampaign) models.LeadCampaignResponse {
	resp := models.LeadCampaignResponse{
		ID:          enrollment.ID,
		LeadID:      enrollment.LeadID,
		CampaignID:  enrollment.CampaignID,
		CurrentStep: enrollment.CurrentStep,
		IsActive:    enrollment.IsActive,
		CreatedAt:   enrollment.CreatedAt.Format(time.RFC3339),
	}
	if enrollment.NextScheduledCall != nil {
		next := enrollment.NextScheduledCall.Format(time.RFC3339)
		resp.NextScheduledCall = &next
	}
	return resp
}

// EnrollLead godoc
// @Summary Enroll a lead in a campaign
// @Description Add a lead to a campaign, scheduled for its first step
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.EnrollLeadRequest true "Lead to enroll"
// @Success 201 {object} models.LeadCampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/leads [post]
func (h *CampaignHandler) EnrollLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.EnrollLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	enrollment, err := h.schedulerService.AddLeadToCampaign(userID, c.Param("id"), req.LeadID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEnrollmentResponse(enrollment))
}

// UnenrollLead godoc
// @Summary Remove a lead from a campaign
// @Description End a lead's enrollment; the enrollment row is kept for history
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param leadId path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/leads/{leadId} [delete]
func (h *CampaignHandler) UnenrollLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	if err := h.schedulerService.RemoveLeadFromCampaign(userID, c.Param("id"), c.Param("leadId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead removed from campaign"})
}
