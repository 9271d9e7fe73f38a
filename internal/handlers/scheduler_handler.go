package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voicereachhq/voicereach-backend/internal/services"
)

type SchedulerHandler struct {
	schedulerService *services.CampaignSchedulerService
}

func NewSchedulerHandler(schedulerService *services.CampaignSchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
	}
}

// ProcessCampaigns godoc
// @Summary Run a scheduler sweep
// @Description Process all due campaign enrollments immediately (admin only)
// @Tags scheduler
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProcessCampaignsResponse
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/scheduler/process-campaigns [post]
func (h *SchedulerHandler) ProcessCampaigns(c *gin.Context) {
	response, err := h.schedulerService.ProcessDueEnrollments()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ProcessCampaignsCron godoc
// @Summary Run a scheduler sweep (cron)
// @Description Sweep entry point for external cron services, authenticated
// with a bearer CRON_SECRET instead of a user token
// @Tags scheduler
// @Produce json
// @Success 200 {object} models.ProcessCampaignsResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/cron/process-campaigns [get]
func (h *SchedulerHandler) ProcessCampaignsCron(c *gin.Context) {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Cron endpoint is not configured"})
		return
	}

	authHeader := c.GetHeader("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token != secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid cron secret"})
		return
	}

	response, err := h.schedulerService.ProcessDueEnrollments()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
