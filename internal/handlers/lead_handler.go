package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services"
	"github.com/voicereachhq/voicereach-backend/internal/utils"
)

type LeadHandler struct {
	leadService *services.LeadService
	callService *services.CallService
}

func NewLeadHandler(leadService *services.LeadService, callService *services.CallService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		callService: callService,
	}
}

func toLeadResponse(lead *models.Lead) models.LeadResponse {
	return models.LeadResponse{
		ID:        lead.ID,
		UserID:    lead.UserID,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Source:    string(lead.Source),
		Status:    string(lead.Status),
		Budget:    lead.Budget,
		Timeline:  lead.Timeline,
		Notes:     lead.Notes,
		CreatedAt: lead.CreatedAt.Format(time.RFC3339),
		UpdatedAt: lead.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateLead godoc
// @Summary Create a lead
// @Description Create a new lead owned by the current user
// @Tags leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateLeadRequest true "Lead to create"
// @Success 201 {object} models.LeadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads [post]
func (h *LeadHandler) CreateLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	lead, err := h.leadService.CreateLead(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toLeadResponse(lead))
}

// GetLeads godoc
// @Summary List leads
// @Description List the current user's leads with optional status/source filters
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" example:"NEW"
// @Param source query string false "Filter by source" example:"OPEN_HOUSE"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads [get]
func (h *LeadHandler) GetLeads(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	leads, total, err := h.leadService.GetLeads(userID, c.Query("status"), c.Query("source"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.LeadResponse, len(leads))
	for i, lead := range leads {
		responses[i] = toLeadResponse(lead)
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":      responses,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// GetLead godoc
// @Summary Get a lead
// @Description Get one of the current user's leads
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} models.LeadResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/{id} [get]
func (h *LeadHandler) GetLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	lead, err := h.leadService.GetLead(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLeadResponse(lead))
}

// UpdateLead godoc
// @Summary Update a lead
// @Description Update one of the current user's leads
// @Tags leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.UpdateLeadRequest true "Updated lead"
// @Success 200 {object} models.LeadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/{id} [put]
func (h *LeadHandler) UpdateLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	lead, err := h.leadService.UpdateLead(userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLeadResponse(lead))
}

// DeleteLead godoc
// @Summary Delete a lead
// @Description Delete one of the current user's leads
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/{id} [delete]
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	if err := h.leadService.DeleteLead(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead deleted successfully"})
}

// GetLeadCalls godoc
// @Summary List a lead's calls
// @Description List call history for one of the current user's leads
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/{id}/calls [get]
func (h *LeadHandler) GetLeadCalls(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	calls, err := h.callService.GetCallsForLead(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.CallResponse, len(calls))
	for i, call := range calls {
		responses[i] = toCallResponse(call)
	}

	c.JSON(http.StatusOK, gin.H{"calls": responses})
}
