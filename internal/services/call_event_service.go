package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// CallEventService consumes call lifecycle events from the call_events
// queue, persists them, and fans them out to SSE subscribers. It also prunes
// the event history past its retention window.
type CallEventService struct {
	eventRepo       *repository.CallEventRepository
	sseHub          *SSEHub
	rabbitMQ        *RabbitMQService
	stopChan        chan bool
	cleanupStopChan chan bool
}

// NewCallEventService creates a new call event service
func NewCallEventService(eventRepo *repository.CallEventRepository, sseHub *SSEHub, rabbitMQ *RabbitMQService) *CallEventService {
	return &CallEventService{
		eventRepo:       eventRepo,
		sseHub:          sseHub,
		rabbitMQ:        rabbitMQ,
		stopChan:        make(chan bool),
		cleanupStopChan: make(chan bool),
	}
}

// StartRabbitMQConsumer starts consuming events from the call_events queue
func (s *CallEventService) StartRabbitMQConsumer() error {
	msgs, err := s.rabbitMQ.channel.Consume(
		CallEventsQueue, // queue
		"",              // consumer
		true,            // auto-ack
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logrus.Infof("RabbitMQ consumer started for %s queue", CallEventsQueue)

	go func() {
		for {
			select {
			case <-s.stopChan:
				logrus.Info("RabbitMQ consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("RabbitMQ channel closed")
					return
				}
				if err := s.processEventMessage(msg.Body); err != nil {
					logrus.Errorf("Failed to process call event message: %v", err)
				}
			}
		}
	}()

	return nil
}

// StopRabbitMQConsumer stops the consumer
func (s *CallEventService) StopRabbitMQConsumer() {
	close(s.stopChan)
}

// processEventMessage persists one queued event and broadcasts it
func (s *CallEventService) processEventMessage(body []byte) error {
	var msg models.CallEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal call event: %w", err)
	}

	if msg.CallID == "" || msg.LeadID == "" || msg.UserID == "" {
		logrus.Warnf("Skipping call event with missing ids: call_id=%s, lead_id=%s, user_id=%s",
			msg.CallID, msg.LeadID, msg.UserID)
		return nil
	}

	_, err := s.recordEvent(&msg)
	return err
}

// RecordEvent persists an event directly, bypassing the queue. Used when
// RabbitMQ is not configured.
func (s *CallEventService) RecordEvent(msg *models.CallEventMessage) (*models.CallEvent, error) {
	return s.recordEvent(msg)
}

// DirectEventPublisher satisfies CallEventPublisher by recording events
// synchronously through the call event service. It stands in for RabbitMQ
// when no broker is configured.
type DirectEventPublisher struct {
	events *CallEventService
}

// NewDirectEventPublisher wraps a call event service as a publisher
func NewDirectEventPublisher(events *CallEventService) *DirectEventPublisher {
	return &DirectEventPublisher{events: events}
}

// PublishCallEvent records the event immediately instead of queueing it
func (p *DirectEventPublisher) PublishCallEvent(msg *models.CallEventMessage) error {
	_, err := p.events.RecordEvent(msg)
	return err
}

func (s *CallEventService) recordEvent(msg *models.CallEventMessage) (*models.CallEvent, error) {
	var metadata models.JSON
	if msg.Metadata != nil {
		metadata = models.JSON(msg.Metadata)
	}

	createdAt := msg.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	event := &models.CallEvent{
		CallID:    msg.CallID,
		LeadID:    msg.LeadID,
		UserID:    msg.UserID,
		EventType: msg.EventType,
		Status:    msg.Status,
		Message:   msg.Message,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, fmt.Errorf("failed to save call event: %w", err)
	}

	s.sseHub.BroadcastCallEvent(event)
	return event, nil
}

// GetEventsByLead lists a lead's event history, newest first
func (s *CallEventService) GetEventsByLead(leadID string, limit, offset int) ([]*models.CallEvent, error) {
	return s.eventRepo.GetByLeadID(leadID, limit, offset)
}

// GetEventsByCall lists a call's events in delivery order
func (s *CallEventService) GetEventsByCall(callID string) ([]*models.CallEvent, error) {
	return s.eventRepo.GetByCallID(callID)
}

// StartEventCleanup starts periodic pruning of old call events
func (s *CallEventService) StartEventCleanup(interval time.Duration, retentionDays int) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.cleanupOldEvents(retentionDays)

		for {
			select {
			case <-ticker.C:
				s.cleanupOldEvents(retentionDays)
			case <-s.cleanupStopChan:
				return
			}
		}
	}()
	logrus.Infof("Call event cleanup started (interval: %v, retention: %d days)", interval, retentionDays)
}

// StopEventCleanup stops the cleanup loop
func (s *CallEventService) StopEventCleanup() {
	select {
	case s.cleanupStopChan <- true:
	default:
	}
}

func (s *CallEventService) cleanupOldEvents(retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	if err := s.eventRepo.DeleteOlderThan(cutoff); err != nil {
		logrus.Errorf("Failed to cleanup old call events: %v", err)
		return
	}
	logrus.Debugf("Call event cleanup completed (retention: %d days)", retentionDays)
}
