package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services"
	"github.com/voicereachhq/voicereach-backend/internal/utils"
)

type CallHandler struct {
	callService *services.CallService
}

func NewCallHandler(callService *services.CallService) *CallHandler {
	return &CallHandler{
		callService: callService,
	}
}

func toCallResponse(call *models.Call) models.CallResponse {
	resp := models.CallResponse{
		ID:           call.ID,
		LeadID:       call.LeadID,
		Status:       string(call.Status),
		BlandCallID:  call.BlandCallID,
		ScheduledAt:  call.ScheduledAt.Format(time.RFC3339),
		Duration:     call.Duration,
		RecordingURL: call.RecordingURL,
		Transcript:   call.Transcript,
		CreatedAt:    call.CreatedAt.Format(time.RFC3339),
	}
	if call.CompletedAt != nil {
		completed := call.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	if call.Outcome != nil {
		outcome := string(*call.Outcome)
		resp.Outcome = &outcome
	}
	return resp
}

// InitiateCall godoc
// @Summary Initiate a call
// @Description Dial one of the current user's leads immediately
// @Tags calls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.InitiateCallRequest true "Lead to call"
// @Success 201 {object} models.InitiateCallResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/calls [post]
func (h *CallHandler) InitiateCall(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	call, err := h.callService.InitiateCall(userID, req.LeadID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.InitiateCallResponse{
		CallID:      call.ID,
		BlandCallID: *call.BlandCallID,
		Status:      string(call.Status),
	})
}

// GetCalls godoc
// @Summary List calls
// @Description List calls across the current user's leads
// @Tags calls
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" example:"COMPLETED"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/calls [get]
func (h *CallHandler) GetCalls(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	calls, total, err := h.callService.GetCalls(userID, c.Query("status"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.CallResponse, len(calls))
	for i, call := range calls {
		responses[i] = toCallResponse(call)
	}

	c.JSON(http.StatusOK, gin.H{
		"calls":      responses,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// GetCall godoc
// @Summary Get a call
// @Description Get one call with its transcript and outcome
// @Tags calls
// @Produce json
// @Security BearerAuth
// @Param id path string true "Call ID"
// @Success 200 {object} models.CallResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/calls/{id} [get]
func (h *CallHandler) GetCall(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	call, err := h.callService.GetCall(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCallResponse(call))
}

// GetCallStatus godoc
// @Summary Poll call status
// @Description Get a call's stored state plus the provider's live view for
// in-flight calls
// @Tags calls
// @Produce json
// @Security BearerAuth
// @Param id path string true "Call ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/calls/{id}/status [get]
func (h *CallHandler) GetCallStatus(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	call, live, err := h.callService.PollCallStatus(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"call": toCallResponse(call)}
	if live != nil {
		response["provider"] = live
	}
	c.JSON(http.StatusOK, response)
}
