package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/config"
	"github.com/voicereachhq/voicereach-backend/internal/models"
	"github.com/voicereachhq/voicereach-backend/internal/services/blandai"
)

type fakeEnrollmentStore struct {
	mu          sync.Mutex
	enrollments map[string]*models.LeadCampaign
	nextID      int
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{enrollments: make(map[string]*models.LeadCampaign)}
}

func (f *fakeEnrollmentStore) add(lc *models.LeadCampaign) *models.LeadCampaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lc.ID == "" {
		f.nextID++
		lc.ID = fmt.Sprintf("enr-%d", f.nextID)
	}
	f.enrollments[lc.ID] = lc
	return lc
}

func (f *fakeEnrollmentStore) Create(lc *models.LeadCampaign) error {
	f.add(lc)
	return nil
}

func (f *fakeEnrollmentStore) GetByLeadAndCampaign(leadID, campaignID string) (*models.LeadCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lc := range f.enrollments {
		if lc.LeadID == leadID && lc.CampaignID == campaignID {
			return lc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentStore) FindDue(now time.Time) ([]*models.LeadCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*models.LeadCampaign
	for _, lc := range f.enrollments {
		if lc.IsActive && lc.NextScheduledCall != nil && !lc.NextScheduledCall.After(now) {
			copied := *lc
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (f *fakeEnrollmentStore) Claim(id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lc, ok := f.enrollments[id]
	if !ok || !lc.IsActive || lc.NextScheduledCall == nil || lc.NextScheduledCall.After(now) {
		return false, nil
	}
	lc.NextScheduledCall = nil
	at := now
	lc.LastAttemptedAt = &at
	return true, nil
}

func (f *fakeEnrollmentStore) Advance(id string, nextStep int, nextCall time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lc := f.enrollments[id]
	lc.CurrentStep = nextStep
	at := nextCall
	lc.NextScheduledCall = &at
	return nil
}

func (f *fakeEnrollmentStore) Restore(id string, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollments[id].NextScheduledCall = at
	return nil
}

func (f *fakeEnrollmentStore) Deactivate(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lc := f.enrollments[id]
	lc.IsActive = false
	lc.NextScheduledCall = nil
	return nil
}

type fakeCallStore struct {
	mu     sync.Mutex
	calls  map[string]*models.Call
	nextID int
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{calls: make(map[string]*models.Call)}
}

func (f *fakeCallStore) Create(call *models.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	call.ID = fmt.Sprintf("call-%d", f.nextID)
	copied := *call
	f.calls[call.ID] = &copied
	return nil
}

func (f *fakeCallStore) Save(call *models.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *call
	f.calls[call.ID] = &copied
	return nil
}

func (f *fakeCallStore) byStatus(status models.CallStatus) []*models.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Call
	for _, c := range f.calls {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

type fakeLeadStore struct {
	leads map[string]*models.Lead
}

func (f *fakeLeadStore) GetByUserIDAndID(userID, leadID string) (*models.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok || lead.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return lead, nil
}

type fakeCampaignStore struct {
	campaigns map[string]*models.Campaign
}

func (f *fakeCampaignStore) GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error) {
	campaign, ok := f.campaigns[campaignID]
	if !ok || campaign.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return campaign, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	result   *blandai.InitiateResult
	requests []*blandai.CallRequest
}

func (f *fakeGateway) InitiateCall(req *blandai.CallRequest) *blandai.InitiateResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.result != nil {
		return f.result
	}
	return &blandai.InitiateResult{Accepted: true, CallID: fmt.Sprintf("bl-%d", len(f.requests))}
}

func (f *fakeGateway) GetCallStatus(callID string) (*blandai.CallStatus, error) {
	return &blandai.CallStatus{CallID: callID, Status: "in-progress"}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.CallEventMessage
}

func (f *fakePublisher) PublishCallEvent(event *models.CallEventMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type schedulerFixture struct {
	svc         *CampaignSchedulerService
	enrollments *fakeEnrollmentStore
	calls       *fakeCallStore
	leads       *fakeLeadStore
	campaigns   *fakeCampaignStore
	gateway     *fakeGateway
	publisher   *fakePublisher
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		enrollments: newFakeEnrollmentStore(),
		calls:       newFakeCallStore(),
		leads:       &fakeLeadStore{leads: make(map[string]*models.Lead)},
		campaigns:   &fakeCampaignStore{campaigns: make(map[string]*models.Campaign)},
		gateway:     &fakeGateway{},
		publisher:   &fakePublisher{},
	}
	cfg := &config.BlandConfig{
		BaseURL:         "https://api.bland.ai",
		APIKey:          "test",
		Voice:           "maya",
		ReduceLatency:   true,
		MaxCallDuration: 300,
		WebhookBaseURL:  "https://example.com",
		HTTPTimeout:     time.Second,
	}
	svc, err := NewCampaignSchedulerService(
		f.enrollments, f.calls, f.leads, f.campaigns,
		f.gateway, cfg, f.publisher, time.Hour, 4,
	)
	require.NoError(t, err)
	f.svc = svc
	t.Cleanup(svc.pool.Release)
	return f
}

func (f *schedulerFixture) seedCampaign(userID string, steps ...models.CampaignStep) *models.Campaign {
	campaign := &models.Campaign{
		ID:       fmt.Sprintf("camp-%d", len(f.campaigns.campaigns)+1),
		UserID:   userID,
		Name:     "Follow-up",
		IsActive: true,
		Steps:    steps,
	}
	f.campaigns.campaigns[campaign.ID] = campaign
	return campaign
}

func (f *schedulerFixture) seedLead(userID string) *models.Lead {
	lead := &models.Lead{
		ID:        fmt.Sprintf("lead-%d", len(f.leads.leads)+1),
		UserID:    userID,
		FirstName: "John",
		LastName:  "Smith",
		Email:     "john@example.com",
		Phone:     "+15551234567",
		Source:    models.LeadSourceOpenHouse,
		Status:    models.LeadStatusNew,
	}
	f.leads.leads[lead.ID] = lead
	return lead
}

func step(number, delayMinutes int, template string) models.CampaignStep {
	return models.CampaignStep{
		ID:             fmt.Sprintf("step-%d", number),
		StepNumber:     number,
		DelayMinutes:   delayMinutes,
		ScriptTemplate: template,
		IsActive:       true,
	}
}

func (f *schedulerFixture) seedDueEnrollment(lead *models.Lead, campaign *models.Campaign, currentStep int) *models.LeadCampaign {
	past := time.Now().Add(-time.Minute)
	lc := f.enrollments.add(&models.LeadCampaign{
		LeadID:            lead.ID,
		CampaignID:        campaign.ID,
		CurrentStep:       currentStep,
		NextScheduledCall: &past,
		IsActive:          true,
		Lead:              *lead,
		Campaign:          *campaign,
	})
	return lc
}

func TestSweepDispatchesAndAdvances(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1",
		step(1, 0, "Hi {firstName}, step one"),
		step(2, 60, "Hi {firstName}, step two"),
	)
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "+15551234567", f.gateway.requests[0].PhoneNumber)
	assert.Equal(t, "Hi John, step one", f.gateway.requests[0].Task)
	assert.Equal(t, "https://example.com/api/v1/webhooks/bland-ai", f.gateway.requests[0].Webhook)

	stored := f.enrollments.enrollments[lc.ID]
	assert.Equal(t, 2, stored.CurrentStep)
	require.NotNil(t, stored.NextScheduledCall)
	assert.WithinDuration(t, time.Now().Add(60*time.Minute), *stored.NextScheduledCall, 10*time.Second)
	assert.True(t, stored.IsActive)
	require.NotNil(t, stored.LastAttemptedAt)

	inProgress := f.calls.byStatus(models.CallStatusInProgress)
	require.Len(t, inProgress, 1)
	require.NotNil(t, inProgress[0].BlandCallID)
	assert.Equal(t, "bl-1", *inProgress[0].BlandCallID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.CallEventInitiated, f.publisher.events[0].EventType)
}

func TestSweepRejectedDialRestoresSchedule(t *testing.T) {
	f := newSchedulerFixture(t)
	f.gateway.result = &blandai.InitiateResult{Reason: "voice API returned status 402"}

	campaign := f.seedCampaign("user-1", step(1, 0, "Hi {firstName}"))
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)
	prior := *lc.NextScheduledCall

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount, "a claimed enrollment counts even when the dial is rejected")

	stored := f.enrollments.enrollments[lc.ID]
	assert.Equal(t, 1, stored.CurrentStep, "step pointer must not advance on rejection")
	require.NotNil(t, stored.NextScheduledCall, "schedule must be restored so the next sweep retries")
	assert.Equal(t, prior.Unix(), stored.NextScheduledCall.Unix())
	assert.True(t, stored.IsActive)

	failed := f.calls.byStatus(models.CallStatusFailed)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].CompletedAt)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.CallEventFailed, f.publisher.events[0].EventType)

	// The restored enrollment is still due, so a later sweep retries it
	f.gateway.result = nil
	resp, err = f.svc.ProcessDueEnrollments()
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
}

func TestSweepDeactivatesTerminalLead(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 0, "Hi"))
	lead := f.seedLead("user-1")
	lead.Status = models.LeadStatusClosed
	lc := f.seedDueEnrollment(lead, campaign, 1)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount, "the deactivation is this sweep's work on the enrollment")
	assert.Empty(t, f.gateway.requests, "closed leads must never be dialed")

	stored := f.enrollments.enrollments[lc.ID]
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.NextScheduledCall)
}

func TestSweepDeactivatesExhaustedEnrollment(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 0, "Hi"))
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 2)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Empty(t, f.gateway.requests)
	assert.False(t, f.enrollments.enrollments[lc.ID].IsActive)
}

func TestSweepGapInStepNumberingTerminates(t *testing.T) {
	f := newSchedulerFixture(t)
	// Step 2 is missing: after step 1 the sequence ends instead of jumping to 3
	campaign := f.seedCampaign("user-1", step(1, 0, "Hi"), step(3, 30, "Later"))
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount, "step 1 itself still runs")
	assert.False(t, f.enrollments.enrollments[lc.ID].IsActive)
}

func TestSweepDisabledNextStepEndsSequence(t *testing.T) {
	f := newSchedulerFixture(t)
	disabled := step(2, 60, "Disabled")
	disabled.IsActive = false
	campaign := f.seedCampaign("user-1",
		step(1, 0, "Hi {firstName}"),
		disabled,
		step(3, 30, "Never reached"),
	)
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "Hi John", f.gateway.requests[0].Task)

	stored := f.enrollments.enrollments[lc.ID]
	assert.False(t, stored.IsActive, "a disabled step ends the sequence")
	assert.Nil(t, stored.NextScheduledCall)

	// The sequence stays ended: later sweeps never reach step 3
	resp, err = f.svc.ProcessDueEnrollments()
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ProcessedCount)
	assert.Len(t, f.gateway.requests, 1)
}

func TestSweepDisabledCurrentStepEndsSequence(t *testing.T) {
	f := newSchedulerFixture(t)
	disabled := step(1, 0, "Hi")
	disabled.IsActive = false
	campaign := f.seedCampaign("user-1", disabled, step(2, 30, "Again"))
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Empty(t, f.gateway.requests, "disabled steps are never dialed")
	assert.False(t, f.enrollments.enrollments[lc.ID].IsActive)
}

func TestSweepLastStepCompletesEnrollment(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 0, "One"), step(2, 0, "Two"))
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 2)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
	stored := f.enrollments.enrollments[lc.ID]
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.NextScheduledCall)
}

func TestSweepHoldsEnrollmentForPausedCampaign(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 0, "Hi"))
	campaign.IsActive = false
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Empty(t, f.gateway.requests)

	stored := f.enrollments.enrollments[lc.ID]
	assert.True(t, stored.IsActive)
	require.NotNil(t, stored.NextScheduledCall, "paused campaigns keep their schedule")
}

func TestOverlappingSweepsDialAtMostOnce(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 0, "Hi"), step(2, 60, "Again"))
	lead := f.seedLead("user-1")
	lc := f.seedDueEnrollment(lead, campaign, 1)

	// Both sweeps see the same stale due row; only the claim winner dials
	stale := *f.enrollments.enrollments[lc.ID]
	now := time.Now()

	first := f.svc.processEnrollment(&stale, now)
	second := f.svc.processEnrollment(&stale, now)

	assert.True(t, first != second, "exactly one of two concurrent claims must win")
	assert.Len(t, f.gateway.requests, 1)
}

func TestSweepEmptyDueSet(t *testing.T) {
	f := newSchedulerFixture(t)

	resp, err := f.svc.ProcessDueEnrollments()

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.ProcessedCount)
}

func TestAddLeadToCampaign(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 30, "Hi"), step(2, 60, "Again"))
	lead := f.seedLead("user-1")

	enrollment, err := f.svc.AddLeadToCampaign("user-1", campaign.ID, lead.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, enrollment.CurrentStep)
	assert.True(t, enrollment.IsActive)
	require.NotNil(t, enrollment.NextScheduledCall)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *enrollment.NextScheduledCall, 10*time.Second)
}

func TestAddLeadToCampaignErrors(t *testing.T) {
	f := newSchedulerFixture(t)
	active := f.seedCampaign("user-1", step(1, 0, "Hi"))
	paused := f.seedCampaign("user-1", step(1, 0, "Hi"))
	paused.IsActive = false
	empty := f.seedCampaign("user-1")
	lead := f.seedLead("user-1")

	_, err := f.svc.AddLeadToCampaign("user-1", "missing", lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddLeadToCampaign("user-2", active.ID, lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "other users' campaigns are invisible")

	_, err = f.svc.AddLeadToCampaign("user-1", paused.ID, lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrCampaignInactive)

	_, err = f.svc.AddLeadToCampaign("user-1", empty.ID, lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoStepsDefined)

	_, err = f.svc.AddLeadToCampaign("user-1", active.ID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddLeadToCampaign("user-1", active.ID, lead.ID)
	require.NoError(t, err)
	_, err = f.svc.AddLeadToCampaign("user-1", active.ID, lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
}

func TestRemoveLeadFromCampaign(t *testing.T) {
	f := newSchedulerFixture(t)
	campaign := f.seedCampaign("user-1", step(1, 0, "Hi"))
	lead := f.seedLead("user-1")

	enrollment, err := f.svc.AddLeadToCampaign("user-1", campaign.ID, lead.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveLeadFromCampaign("user-1", campaign.ID, lead.ID))

	stored := f.enrollments.enrollments[enrollment.ID]
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.NextScheduledCall)

	err = f.svc.RemoveLeadFromCampaign("user-1", campaign.ID, "other-lead")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
