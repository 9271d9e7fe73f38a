package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleBlandWebhook godoc
// @Summary Voice provider completion webhook
// @Description Receives call status callbacks from the voice provider. The
// endpoint is unauthenticated; the payload is validated and matched against
// known provider call ids instead.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body models.BlandWebhookPayload true "Provider callback"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/webhooks/bland-ai [post]
func (h *WebhookHandler) HandleBlandWebhook(c *gin.Context) {
	var payload models.BlandWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload", "details": err.Error()})
		return
	}

	logrus.Infof("Received %s webhook for provider call %s", payload.Status, payload.CallID)

	if err := h.webhookService.ProcessWebhook(&payload); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook processed"})
}
