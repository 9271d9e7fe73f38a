package services

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// webhookCallStore is the call persistence surface used inside a webhook
// transaction
type webhookCallStore interface {
	GetByBlandCallIDForUpdate(blandCallID string) (*models.Call, error)
	Save(call *models.Call) error
}

// webhookCallTx runs a webhookCallStore inside one database transaction
type webhookCallTx interface {
	Transaction(fn func(store webhookCallStore) error) error
}

// webhookLeadStore updates lead status after classification
type webhookLeadStore interface {
	GetByID(id string) (*models.Lead, error)
	UpdateStatus(leadID string, status models.LeadStatus) error
}

// callRepoTx adapts CallRepository's transaction helper to the store
// interface so the classifier can be tested against fakes
type callRepoTx struct {
	repo *repository.CallRepository
}

// NewWebhookCallStore wraps the call repository for the webhook service
func NewWebhookCallStore(repo *repository.CallRepository) webhookCallTx {
	return &callRepoTx{repo: repo}
}

func (c *callRepoTx) Transaction(fn func(store webhookCallStore) error) error {
	return c.repo.Transaction(func(txRepo *repository.CallRepository) error {
		return fn(txRepo)
	})
}

// WebhookService applies the voice provider's completion callbacks to call
// records: status mapping, outcome classification, and the lead status
// cascade. Concurrent deliveries for the same provider call id are
// serialized by a row lock, so redelivery is idempotent.
type WebhookService struct {
	calls  webhookCallTx
	leads  webhookLeadStore
	events CallEventPublisher
}

// NewWebhookService creates a new webhook service
func NewWebhookService(calls webhookCallTx, leads webhookLeadStore, events CallEventPublisher) *WebhookService {
	return &WebhookService{calls: calls, leads: leads, events: events}
}

// ProcessWebhook applies one provider callback. Returns ErrNotFound when no
// call matches the provider call id.
func (s *WebhookService) ProcessWebhook(payload *models.BlandWebhookPayload) error {
	newStatus, ok := mapProviderStatus(payload.Status)
	if !ok {
		return apperrors.Wrap(apperrors.ErrValidation, "unknown provider status %q", payload.Status)
	}

	var updated *models.Call
	err := s.calls.Transaction(func(store webhookCallStore) error {
		call, err := store.GetByBlandCallIDForUpdate(payload.CallID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrNotFound, "no call for provider call id %s", payload.CallID)
			}
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to load call: %v", err)
		}

		// A late or out-of-order in-progress update must never downgrade a
		// call that already reached a final status
		if call.Status.IsTerminal() && !newStatus.IsTerminal() {
			logrus.Infof("Ignoring %s update for terminal call %s (%s)", payload.Status, call.ID, call.Status)
			return nil
		}

		call.Status = newStatus
		if payload.Duration != nil {
			call.Duration = payload.Duration
		}
		if payload.RecordingURL != "" {
			call.RecordingURL = payload.RecordingURL
		}
		if payload.Transcript != "" {
			call.Transcript = payload.Transcript
		}
		if newStatus.IsTerminal() {
			call.CompletedAt = completedAtFromPayload(payload)
		}
		// The provider attaches analysis to failed calls too, so
		// classification keys on its presence rather than the status
		if outcome := ClassifyOutcome(payload); outcome != nil {
			call.Outcome = outcome
		}

		if err := store.Save(call); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to save call: %v", err)
		}
		updated = call
		return nil
	})
	if err != nil {
		return err
	}
	if updated == nil {
		// Terminal guard dropped the update
		return nil
	}

	s.cascadeLeadStatus(updated)
	s.publishWebhookEvent(updated, payload.Status)
	return nil
}

// mapProviderStatus translates the provider's status vocabulary to ours
func mapProviderStatus(status string) (models.CallStatus, bool) {
	switch status {
	case "completed":
		return models.CallStatusCompleted, true
	case "failed":
		return models.CallStatusFailed, true
	case "in-progress":
		return models.CallStatusInProgress, true
	default:
		return "", false
	}
}

func completedAtFromPayload(payload *models.BlandWebhookPayload) *time.Time {
	if payload.CompletedAt != "" {
		if at, err := time.Parse(time.RFC3339, payload.CompletedAt); err == nil {
			return &at
		}
		logrus.Warnf("Unparseable completed_at %q for provider call %s", payload.CompletedAt, payload.CallID)
	}
	now := time.Now()
	return &now
}

// ClassifyOutcome derives a call outcome from the provider's analysis block.
// Returns nil when no analysis was delivered; classification never runs on
// signal-free payloads. The checks are ordered by how strong a signal each
// one is.
func ClassifyOutcome(payload *models.BlandWebhookPayload) *models.CallOutcome {
	analysis := payload.Analysis
	if analysis == nil {
		return nil
	}

	var outcome models.CallOutcome
	switch {
	case analysis.Qualified:
		outcome = models.CallOutcomeQualified
	case analysis.CallbackRequested:
		outcome = models.CallOutcomeCallbackRequested
	case analysis.AppointmentScheduled:
		outcome = models.CallOutcomeAppointmentScheduled
	case strings.Contains(strings.ToLower(payload.Transcript), "voicemail"):
		outcome = models.CallOutcomeVoicemail
	case payload.Duration != nil && *payload.Duration < 30:
		outcome = models.CallOutcomeNoAnswer
	default:
		outcome = models.CallOutcomeNotQualified
	}
	return &outcome
}

// cascadeLeadStatus promotes the lead when the call produced a strong
// outcome, or marks a fresh lead contacted after any completed call. Closed
// and lost leads are never touched.
func (s *WebhookService) cascadeLeadStatus(call *models.Call) {
	lead, err := s.leads.GetByID(call.LeadID)
	if err != nil {
		logrus.Errorf("Failed to load lead %s for status cascade: %v", call.LeadID, err)
		return
	}
	if lead.Status.IsTerminal() {
		return
	}

	var target models.LeadStatus
	switch {
	case call.Outcome != nil && *call.Outcome == models.CallOutcomeQualified:
		target = models.LeadStatusQualified
	case call.Outcome != nil && *call.Outcome == models.CallOutcomeAppointmentScheduled:
		target = models.LeadStatusScheduled
	case call.Status == models.CallStatusCompleted && lead.Status == models.LeadStatusNew:
		target = models.LeadStatusContacted
	default:
		return
	}
	if target == lead.Status {
		return
	}

	if err := s.leads.UpdateStatus(lead.ID, target); err != nil {
		logrus.Errorf("Failed to update lead %s status to %s: %v", lead.ID, target, err)
		return
	}
	logrus.Infof("Lead %s status %s -> %s after call %s", lead.ID, lead.Status, target, call.ID)
}

func (s *WebhookService) publishWebhookEvent(call *models.Call, providerStatus string) {
	if s.events == nil {
		return
	}

	eventType := models.CallEventUpdated
	message := "Call status updated to " + string(call.Status)
	switch call.Status {
	case models.CallStatusCompleted:
		eventType = models.CallEventCompleted
		message = "Call completed"
	case models.CallStatusFailed:
		eventType = models.CallEventFailed
		message = "Call failed"
	}

	var lead *models.Lead
	if l, err := s.leads.GetByID(call.LeadID); err == nil {
		lead = l
	} else {
		logrus.Warnf("Failed to load lead %s for call event: %v", call.LeadID, err)
		return
	}

	metadata := map[string]interface{}{"provider_status": providerStatus}
	if call.Outcome != nil {
		metadata["outcome"] = string(*call.Outcome)
	}

	event := &models.CallEventMessage{
		EventType:  eventType,
		CallID:     call.ID,
		LeadID:     call.LeadID,
		UserID:     lead.UserID,
		Status:     string(call.Status),
		Message:    message,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if err := s.events.PublishCallEvent(event); err != nil {
		logrus.Warnf("Failed to publish %s event for call %s: %v", eventType, call.ID, err)
	}
}
