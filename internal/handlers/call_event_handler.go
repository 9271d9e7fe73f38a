package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voicereachhq/voicereach-backend/internal/services"
)

type CallEventHandler struct {
	callEventService *services.CallEventService
	leadService      *services.LeadService
	sseHub           *services.SSEHub
}

func NewCallEventHandler(callEventService *services.CallEventService, leadService *services.LeadService, sseHub *services.SSEHub) *CallEventHandler {
	return &CallEventHandler{
		callEventService: callEventService,
		leadService:      leadService,
		sseHub:           sseHub,
	}
}

// GetLeadEvents godoc
// @Summary List a lead's call events
// @Description List the persisted call lifecycle events for one of the
// current user's leads, newest first
// @Tags call-events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param limit query int false "Max events" default(100)
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/{id}/events [get]
func (h *CallEventHandler) GetLeadEvents(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	leadID := c.Param("id")

	if _, err := h.leadService.GetLead(userID, leadID); err != nil {
		respondError(c, err)
		return
	}

	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}

	events, err := h.callEventService.GetEventsByLead(leadID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get events", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// StreamEvents godoc
// @Summary Stream call events via Server-Sent Events
// @Description Stream real-time call lifecycle events for the current user
// @Tags call-events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 "SSE stream"
// @Router /api/v1/events/stream [get]
func (h *CallEventHandler) StreamEvents(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	h.streamForKey(c, "user", userID)
}

// StreamLeadEvents godoc
// @Summary Stream a lead's call events via Server-Sent Events
// @Description Stream real-time call lifecycle events for one lead
// @Tags call-events
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/leads/{id}/events/stream [get]
func (h *CallEventHandler) StreamLeadEvents(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	leadID := c.Param("id")

	if _, err := h.leadService.GetLead(userID, leadID); err != nil {
		respondError(c, err)
		return
	}

	h.streamForKey(c, "lead", leadID)
}

func (h *CallEventHandler) streamForKey(c *gin.Context, entityType, entityID string) {
	// Set headers for SSE
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable buffering for nginx

	clientChan := h.sseHub.RegisterClient(entityType, entityID)
	defer h.sseHub.UnregisterClient(entityType, entityID, clientChan)

	c.SSEvent("connected", gin.H{
		"entity_type": entityType,
		"entity_id":   entityID,
		"message":     "Connected to call event stream",
	})
	c.Writer.Flush()

	// Replay recent history for lead streams so the client sees events that
	// happened before it connected
	if entityType == "lead" {
		existing, err := h.callEventService.GetEventsByLead(entityID, 100, 0)
		if err == nil {
			for i := len(existing) - 1; i >= 0; i-- {
				eventJSON, err := json.Marshal(existing[i])
				if err != nil {
					continue
				}
				message := fmt.Sprintf("event: %s\ndata: %s\n\n", existing[i].EventType, string(eventJSON))
				if _, err := c.Writer.Write([]byte(message)); err != nil {
					return
				}
				c.Writer.Flush()
			}
		}
	}

	for {
		select {
		case <-c.Request.Context().Done():
			logrus.Infof("SSE client disconnected: %s/%s", entityType, entityID)
			return
		case message, ok := <-clientChan:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(message); err != nil {
				logrus.Errorf("Failed to write SSE message: %v", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
