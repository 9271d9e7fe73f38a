package services

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/config"
	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services/blandai"
)

// enrollmentStore is the persistence surface the scheduler needs for
// lead-campaign enrollments
type enrollmentStore interface {
	Create(lc *models.LeadCampaign) error
	GetByLeadAndCampaign(leadID, campaignID string) (*models.LeadCampaign, error)
	FindDue(now time.Time) ([]*models.LeadCampaign, error)
	Claim(id string, now time.Time) (bool, error)
	Advance(id string, nextStep int, nextCall time.Time) error
	Restore(id string, at *time.Time) error
	Deactivate(id string) error
}

// schedulerCallStore persists call attempts created by the sweep
type schedulerCallStore interface {
	Create(call *models.Call) error
	Save(call *models.Call) error
}

// schedulerLeadStore resolves leads for enrollment operations
type schedulerLeadStore interface {
	GetByUserIDAndID(userID, leadID string) (*models.Lead, error)
}

// schedulerCampaignStore resolves campaigns for enrollment operations
type schedulerCampaignStore interface {
	GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error)
}

// CallEventPublisher publishes call lifecycle events to the message bus
type CallEventPublisher interface {
	PublishCallEvent(event *models.CallEventMessage) error
}

// CampaignSchedulerService sweeps due enrollments and dispatches their
// scripted calls. A sweep runs on a ticker and can also be triggered through
// the API; overlapping sweeps are safe because each enrollment is claimed
// with a conditional update before any dialing happens.
type CampaignSchedulerService struct {
	enrollments enrollmentStore
	calls       schedulerCallStore
	leads       schedulerLeadStore
	campaigns   schedulerCampaignStore
	gateway     blandai.VoiceGateway
	blandCfg    *config.BlandConfig
	events      CallEventPublisher

	pool     *ants.Pool
	interval time.Duration
	stopChan chan bool
}

// NewCampaignSchedulerService creates the scheduler with its dependencies.
// poolSize bounds how many calls one sweep dispatches concurrently.
func NewCampaignSchedulerService(
	enrollments enrollmentStore,
	calls schedulerCallStore,
	leads schedulerLeadStore,
	campaigns schedulerCampaignStore,
	gateway blandai.VoiceGateway,
	blandCfg *config.BlandConfig,
	events CallEventPublisher,
	interval time.Duration,
	poolSize int,
) (*CampaignSchedulerService, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler worker pool: %w", err)
	}

	return &CampaignSchedulerService{
		enrollments: enrollments,
		calls:       calls,
		leads:       leads,
		campaigns:   campaigns,
		gateway:     gateway,
		blandCfg:    blandCfg,
		events:      events,
		pool:        pool,
		interval:    interval,
		stopChan:    make(chan bool),
	}, nil
}

// Start starts the periodic sweep
func (s *CampaignSchedulerService) Start() {
	go s.run()
	logrus.Infof("Campaign scheduler started (interval: %s)", s.interval)
}

// Stop stops the periodic sweep and releases the worker pool
func (s *CampaignSchedulerService) Stop() {
	s.stopChan <- true
	s.pool.Release()
	logrus.Info("Campaign scheduler stopped")
}

func (s *CampaignSchedulerService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.ProcessDueEnrollments(); err != nil {
				logrus.Errorf("Scheduled sweep failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// ProcessDueEnrollments runs one sweep: select every active enrollment whose
// next scheduled call is due, claim each one, and dispatch its current step's
// call. A failure on one enrollment never aborts the others. Returns how many
// due enrollments this sweep claimed and handled, dispatched or not.
func (s *CampaignSchedulerService) ProcessDueEnrollments() (*models.ProcessCampaignsResponse, error) {
	now := time.Now()

	due, err := s.enrollments.FindDue(now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to query due enrollments: %v", err)
	}

	var processed int32
	var wg sync.WaitGroup
	for _, enrollment := range due {
		enrollment := enrollment
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.Errorf("Panic processing enrollment %s: %v", enrollment.ID, r)
					sentry.CaptureException(fmt.Errorf("panic processing enrollment %s: %v", enrollment.ID, r))
				}
			}()
			if s.processEnrollment(enrollment, now) {
				atomic.AddInt32(&processed, 1)
			}
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool released or saturated beyond its queue; fall back inline
			task()
		}
	}
	wg.Wait()

	count := int(atomic.LoadInt32(&processed))
	return &models.ProcessCampaignsResponse{
		Success:        true,
		ProcessedCount: count,
		Message:        fmt.Sprintf("Processed %d scheduled campaigns", count),
	}, nil
}

// processEnrollment handles one due enrollment end to end. Returns true when
// this sweep won the claim, whether the handling ended in a dispatched call,
// a held schedule, or a deactivation.
func (s *CampaignSchedulerService) processEnrollment(enrollment *models.LeadCampaign, now time.Time) bool {
	prior := enrollment.NextScheduledCall

	claimed, err := s.enrollments.Claim(enrollment.ID, now)
	if err != nil {
		s.reportEnrollmentError(enrollment, "failed to claim enrollment", err)
		return false
	}
	if !claimed {
		// Another sweep got here first, or the enrollment changed under us
		return false
	}

	lead := enrollment.Lead
	if lead.Status.IsTerminal() {
		if err := s.enrollments.Deactivate(enrollment.ID); err != nil {
			s.reportEnrollmentError(enrollment, "failed to deactivate enrollment for closed lead", err)
		}
		logrus.Infof("Deactivated enrollment %s: lead %s is %s", enrollment.ID, lead.ID, lead.Status)
		return true
	}

	if !enrollment.Campaign.IsActive {
		// Paused campaign: hold position, resume when reactivated
		if err := s.enrollments.Restore(enrollment.ID, prior); err != nil {
			s.reportEnrollmentError(enrollment, "failed to restore schedule for paused campaign", err)
		}
		return true
	}

	step := enrollment.Campaign.StepByNumber(enrollment.CurrentStep)
	if step == nil || !step.IsActive {
		// Sequence exhausted, a gap in the numbering, or the step was
		// disabled after scheduling: no step left to run
		if err := s.enrollments.Deactivate(enrollment.ID); err != nil {
			s.reportEnrollmentError(enrollment, "failed to deactivate exhausted enrollment", err)
		}
		logrus.Infof("Enrollment %s completed campaign %s", enrollment.ID, enrollment.CampaignID)
		return true
	}

	script := RenderScript(step.ScriptTemplate, &lead)

	call := &models.Call{
		LeadID:      lead.ID,
		Status:      models.CallStatusPending,
		ScheduledAt: now,
	}
	if err := s.calls.Create(call); err != nil {
		s.reportEnrollmentError(enrollment, "failed to create call record", err)
		if restoreErr := s.enrollments.Restore(enrollment.ID, prior); restoreErr != nil {
			s.reportEnrollmentError(enrollment, "failed to restore schedule", restoreErr)
		}
		return true
	}

	result := s.gateway.InitiateCall(&blandai.CallRequest{
		PhoneNumber:   lead.Phone,
		Task:          script,
		Voice:         s.blandCfg.Voice,
		ReduceLatency: s.blandCfg.ReduceLatency,
		MaxDuration:   s.blandCfg.MaxCallDuration,
		Webhook:       s.blandCfg.WebhookURL(),
		Record:        true,
		Metadata: map[string]string{
			"call_id":     call.ID,
			"lead_id":     lead.ID,
			"campaign_id": enrollment.CampaignID,
		},
	})

	if !result.Accepted {
		call.Status = models.CallStatusFailed
		completedAt := now
		call.CompletedAt = &completedAt
		if err := s.calls.Save(call); err != nil {
			s.reportEnrollmentError(enrollment, "failed to mark call failed", err)
		}
		// Leave the schedule as it was so the next sweep retries this step
		if err := s.enrollments.Restore(enrollment.ID, prior); err != nil {
			s.reportEnrollmentError(enrollment, "failed to restore schedule after rejected dial", err)
		}
		logrus.Warnf("Voice provider rejected call for lead %s: %s", lead.ID, result.Reason)
		s.publishEvent(models.CallEventFailed, call, &lead, result.Reason)
		return true
	}

	call.Status = models.CallStatusInProgress
	call.BlandCallID = &result.CallID
	if err := s.calls.Save(call); err != nil {
		s.reportEnrollmentError(enrollment, "failed to record dispatched call", err)
	}

	s.advanceEnrollment(enrollment, now)
	logrus.Infof("Dispatched step %d call for lead %s (call %s, provider %s)",
		step.StepNumber, lead.ID, call.ID, result.CallID)
	s.publishEvent(models.CallEventInitiated, call, &lead, fmt.Sprintf("Step %d call dispatched", step.StepNumber))
	return true
}

// advanceEnrollment moves the step pointer forward. The lookup is exact: if
// there is no active step with number currentStep+1 the sequence is done and
// the enrollment is deactivated. A disabled step ends the sequence rather
// than being skipped over.
func (s *CampaignSchedulerService) advanceEnrollment(enrollment *models.LeadCampaign, now time.Time) {
	next := enrollment.CurrentStep + 1
	nextStep := enrollment.Campaign.StepByNumber(next)
	if nextStep == nil || !nextStep.IsActive {
		if err := s.enrollments.Deactivate(enrollment.ID); err != nil {
			s.reportEnrollmentError(enrollment, "failed to deactivate completed enrollment", err)
		}
		return
	}

	nextCall := now.Add(time.Duration(nextStep.DelayMinutes) * time.Minute)
	if err := s.enrollments.Advance(enrollment.ID, next, nextCall); err != nil {
		s.reportEnrollmentError(enrollment, "failed to advance enrollment", err)
	}
}

func (s *CampaignSchedulerService) publishEvent(eventType string, call *models.Call, lead *models.Lead, message string) {
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

func (s *CampaignSchedulerService) reportEnrollmentError(enrollment *models.LeadCampaign, message string, err error) {
	logrus.Errorf("Enrollment %s: %s: %v", enrollment.ID, message, err)
	sentry.CaptureException(fmt.Errorf("enrollment %s: %s: %w", enrollment.ID, message, err))
}

// AddLeadToCampaign enrolls a lead into a campaign, scheduled for the
// campaign's first step. Both the lead and the campaign must belong to the
// requesting user.
func (s *CampaignSchedulerService) AddLeadToCampaign(userID, campaignID, leadID string) (*models.LeadCampaign, error) {
	campaign, err := s.campaigns.GetByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "campaign %s not found", campaignID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load campaign: %v", err)
	}
	if !campaign.IsActive {
		return nil, apperrors.Wrap(apperrors.ErrCampaignInactive, "campaign %s is not active", campaignID)
	}

	firstStep := campaign.FirstStep()
	if firstStep == nil {
		return nil, apperrors.Wrap(apperrors.ErrNoStepsDefined, "campaign %s has no steps", campaignID)
	}

	lead, err := s.leads.GetByUserIDAndID(userID, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "lead %s not found", leadID)
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load lead: %v", err)
	}

	if _, err := s.enrollments.GetByLeadAndCampaign(lead.ID, campaign.ID); err == nil {
		return nil, apperrors.Wrap(apperrors.ErrAlreadyEnrolled, "lead %s is already enrolled in campaign %s", leadID, campaignID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to check enrollment: %v", err)
	}

	nextCall := time.Now().Add(time.Duration(firstStep.DelayMinutes) * time.Minute)
	enrollment := &models.LeadCampaign{
		LeadID:            lead.ID,
		CampaignID:        campaign.ID,
		CurrentStep:       firstStep.StepNumber,
		NextScheduledCall: &nextCall,
		IsActive:          true,
	}
	if err := s.enrollments.Create(enrollment); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to create enrollment: %v", err)
	}

	logrus.Infof("Enrolled lead %s in campaign %s, first call at %s", leadID, campaignID, nextCall.Format(time.RFC3339))
	return enrollment, nil
}

// RemoveLeadFromCampaign ends a lead's enrollment in a campaign. The row is
// kept for history; only the active flag and schedule are cleared.
func (s *CampaignSchedulerService) RemoveLeadFromCampaign(userID, campaignID, leadID string) error {
	if _, err := s.campaigns.GetByUserIDAndID(userID, campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrNotFound, "campaign %s not found", campaignID)
		}
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to load campaign: %v", err)
	}

	enrollment, err := s.enrollments.GetByLeadAndCampaign(leadID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrNotFound, "lead %s is not enrolled in campaign %s", leadID, campaignID)
		}
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to load enrollment: %v", err)
	}

	if err := s.enrollments.Deactivate(enrollment.ID); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to deactivate enrollment: %v", err)
	}
	return nil
}
