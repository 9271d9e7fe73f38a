package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/config"
	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services/blandai"
)

// defaultCallTemplate is the script used for manually triggered calls, which
// have no campaign step to draw from.
const defaultCallTemplate = "Hi {firstName}, this is Maya calling from the VoiceReach real estate team. " +
	"I wanted to follow up on your recent interest and see if you have a few minutes to talk about what you're looking for. " +
	"Are you still in the market?"

// callStore is the call persistence surface for the call service
type callStore interface {
	Create(call *models.Call) error
	Save(call *models.Call) error
	GetByID(id string) (*models.Call, error)
	GetByUserID(userID, status string, page, pageSize int) ([]*models.Call, int64, error)
	GetByLeadID(leadID string) ([]*models.Call, error)
}

// CallService handles manually triggered calls and call queries
type CallService struct {
	calls    callStore
	leads    schedulerLeadStore
	gateway  blandai.VoiceGateway
	blandCfg *config.BlandConfig
	events   CallEventPublisher
}

// NewCallService creates a new call service
func NewCallService(calls callStore, leads schedulerLeadStore, gateway blandai.VoiceGateway, blandCfg *config.BlandConfig, events CallEventPublisher) *CallService {
	return &CallService{calls: calls, leads: leads, gateway: gateway, blandCfg: blandCfg, events: events}
}

// InitiateCall dials a lead immediately, outside any campaign
func (s *CallService) InitiateCall(userID, leadID string) (*models.Call, error) {
	lead, err := s.leads.GetByUserIDAndID(userID, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "lead %s not found", leadID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load lead: %v", err)
	}
	if lead.Status.IsTerminal() {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "lead %s is %s and cannot be called", leadID, lead.Status)
	}

	now := time.Now()
	call := &models.Call{
		LeadID:      lead.ID,
		Status:      models.CallStatusPending,
		ScheduledAt: now,
	}
	if err := s.calls.Create(call); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to create call record: %v", err)
	}

	result := s.gateway.InitiateCall(&blandai.CallRequest{
		PhoneNumber:   lead.Phone,
		Task:          RenderScript(defaultCallTemplate, lead),
		Voice:         s.blandCfg.Voice,
		ReduceLatency: s.blandCfg.ReduceLatency,
		MaxDuration:   s.blandCfg.MaxCallDuration,
		Webhook:       s.blandCfg.WebhookURL(),
		Record:        true,
		Metadata: map[string]string{
			"call_id": call.ID,
			"lead_id": lead.ID,
		},
	})

	if !result.Accepted {
		call.Status = models.CallStatusFailed
		completedAt := now
		call.CompletedAt = &completedAt
		if saveErr := s.calls.Save(call); saveErr != nil {
			logrus.Errorf("Failed to mark call %s failed: %v", call.ID, saveErr)
		}
		s.publishCallEvent(models.CallEventFailed, call, lead, result.Reason)
		return nil, apperrors.Wrap(apperrors.ErrGateway, "voice provider rejected call: %s", result.Reason)
	}

	call.Status = models.CallStatusInProgress
	call.BlandCallID = &result.CallID
	if err := s.calls.Save(call); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to record dispatched call: %v", err)
	}

	logrus.Infof("Manually dispatched call %s for lead %s (provider %s)", call.ID, lead.ID, result.CallID)
	s.publishCallEvent(models.CallEventInitiated, call, lead, "Manual call dispatched")
	return call, nil
}

// GetCalls lists calls across the user's leads with an optional status filter
func (s *CallService) GetCalls(userID, status string, page, pageSize int) ([]*models.Call, int64, error) {
	calls, total, err := s.calls.GetByUserID(userID, status, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to list calls: %v", err)
	}
	return calls, total, nil
}

// GetCall retrieves one call, scoped to the user's leads
func (s *CallService) GetCall(userID, callID string) (*models.Call, error) {
	call, err := s.calls.GetByID(callID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "call %s not found", callID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load call: %v", err)
	}
	if call.Lead.UserID != userID {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "call %s not found", callID)
	}
	return call, nil
}

// GetCallsForLead lists calls for one of the user's leads
func (s *CallService) GetCallsForLead(userID, leadID string) ([]*models.Call, error) {
	if _, err := s.leads.GetByUserIDAndID(userID, leadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "lead %s not found", leadID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load lead: %v", err)
	}

	calls, err := s.calls.GetByLeadID(leadID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list calls: %v", err)
	}
	return calls, nil
}

// PollCallStatus fetches the provider's live view of a non-terminal call.
// The record itself is only mutated by the webhook path; polling is a
// read-only fallback for dashboards while the webhook is in flight.
func (s *CallService) PollCallStatus(userID, callID string) (*models.Call, *blandai.CallStatus, error) {
	call, err := s.GetCall(userID, callID)
	if err != nil {
		return nil, nil, err
	}
	if call.Status.IsTerminal() || call.BlandCallID == nil {
		return call, nil, nil
	}

	status, err := s.gateway.GetCallStatus(*call.BlandCallID)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrGateway, "failed to poll call status: %v", err)
	}
	return call, status, nil
}

func (s *CallService) publishCallEvent(eventType string, call *models.Call, lead *models.Lead, message string) {
	if s.events == nil {
		return
	}
	event := &models.CallEventMessage{
		EventType:  eventType,
		CallID:     call.ID,
		LeadID:     lead.ID,
		UserID:     lead.UserID,
		Status:     string(call.Status),
		Message:    message,
		OccurredAt: time.Now(),
	}
	if err := s.events.PublishCallEvent(event); err != nil {
		logrus.Warnf("Failed to publish %s event for call %s: %v", eventType, call.ID, err)
	}
}
