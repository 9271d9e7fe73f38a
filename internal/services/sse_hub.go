package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// SSEHub manages Server-Sent Events connections for real-time call event
// streaming. Clients subscribe to one call, one lead, or everything for a
// user; every persisted call event is fanned out to all three keys.
type SSEHub struct {
	// Key format: "call:<id>", "lead:<id>" or "user:<id>"
	clients map[string]map[chan []byte]bool
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]map[chan []byte]bool),
	}
}

// RegisterClient registers a new SSE client for an entity
func (h *SSEHub) RegisterClient(entityType, entityID string) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	clientChan := make(chan []byte, 10)

	if h.clients[key] == nil {
		h.clients[key] = make(map[chan []byte]bool)
	}
	h.clients[key][clientChan] = true

	logrus.Infof("SSE client registered for %s (total clients: %d)", key, len(h.clients[key]))
	return clientChan
}

// UnregisterClient unregisters an SSE client
func (h *SSEHub) UnregisterClient(entityType, entityID string, clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	if h.clients[key] != nil {
		delete(h.clients[key], clientChan)
		close(clientChan)

		if len(h.clients[key]) == 0 {
			delete(h.clients, key)
		}
	}

	logrus.Infof("SSE client unregistered for %s (remaining clients: %d)", key, len(h.clients[key]))
}

// BroadcastCallEvent broadcasts an event to every client subscribed to its
// call, its lead, or its owning user
func (h *SSEHub) BroadcastCallEvent(event *models.CallEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, key := range []string{
		fmt.Sprintf("call:%s", event.CallID),
		fmt.Sprintf("lead:%s", event.LeadID),
		fmt.Sprintf("user:%s", event.UserID),
	} {
		h.broadcastToKeyLocked(key, event, h.clients[key])
	}
}

// broadcastToKeyLocked sends the event to clients (assumes lock is held)
func (h *SSEHub) broadcastToKeyLocked(key string, event *models.CallEvent, clients map[chan []byte]bool) {
	if len(clients) == 0 {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		logrus.Errorf("Failed to marshal call event for SSE: %v", err)
		return
	}

	// EventSource clients dispatch on the event type line
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, string(eventJSON))

	for clientChan := range clients {
		select {
		case clientChan <- []byte(message):
		default:
			// Channel is full, skip this client
			logrus.Warnf("SSE client channel full, skipping: %s", key)
		}
	}
}

// GetClientCount returns the number of clients for a specific entity
func (h *SSEHub) GetClientCount(entityType, entityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	if clients, exists := h.clients[key]; exists {
		return len(clients)
	}
	return 0
}

// SendHeartbeat sends a heartbeat message to keep connection alive
func (h *SSEHub) SendHeartbeat(entityType, entityID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	key := fmt.Sprintf("%s:%s", entityType, entityID)
	clients, exists := h.clients[key]
	if !exists {
		return
	}

	heartbeat := fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339))
	for clientChan := range clients {
		select {
		case clientChan <- []byte(heartbeat):
		default:
			// Skip if channel is full
		}
	}
}
