package services

import (
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

func (f *fakeCallStore) GetByID(id string) (*models.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.calls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *call
	return &copied, nil
}

func (f *fakeCallStore) GetByUserID(userID, status string, page, pageSize int) ([]*models.Call, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Call
	for _, c := range f.calls {
		if c.Lead.UserID != userID {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCallStore) GetByLeadID(leadID string) ([]*models.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Call
	for _, c := range f.calls {
		if c.LeadID == leadID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

type callServiceFixture struct {
	svc       *CallService
	calls     *fakeCallStore
	leads     *fakeLeadStore
	gateway   *fakeGateway
	publisher *fakePublisher
	lead      *models.Lead
}

func newCallServiceFixture(t *testing.T) *callServiceFixture {
	t.Helper()
	f := &callServiceFixture{
		calls:     newFakeCallStore(),
		leads:     &fakeLeadStore{leads: make(map[string]*models.Lead)},
		gateway:   &fakeGateway{},
		publisher: &fakePublisher{},
	}
	f.lead = &models.Lead{
		ID:        "lead-1",
		UserID:    "user-1",
		FirstName: "John",
		LastName:  "Smith",
		Phone:     "+15551234567",
		Status:    models.LeadStatusNew,
	}
	f.leads.leads[f.lead.ID] = f.lead

	cfg := &config.BlandConfig{
		BaseURL:         "https://api.bland.ai",
		APIKey:          "test",
		Voice:           "maya",
		MaxCallDuration: 300,
		WebhookBaseURL:  "https://example.com",
		HTTPTimeout:     time.Second,
	}
	f.svc = NewCallService(f.calls, f.leads, f.gateway, cfg, f.publisher)
	return f
}

func TestInitiateCallDispatches(t *testing.T) {
	f := newCallServiceFixture(t)

	call, err := f.svc.InitiateCall("user-1", "lead-1")

	require.NoError(t, err)
	assert.Equal(t, models.CallStatusInProgress, call.Status)
	require.NotNil(t, call.BlandCallID)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "+15551234567", f.gateway.requests[0].PhoneNumber)
	assert.Contains(t, f.gateway.requests[0].Task, "Hi John")
	assert.NotContains(t, f.gateway.requests[0].Task, "{firstName}")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.CallEventInitiated, f.publisher.events[0].EventType)
}

func TestInitiateCallRejectedByProvider(t *testing.T) {
	f := newCallServiceFixture(t)
	f.gateway.result = &blandai.InitiateResult{Reason: "voice API returned status 503"}

	_, err := f.svc.InitiateCall("user-1", "lead-1")

	assert.ErrorIs(t, err, apperrors.ErrGateway)
	failed := f.calls.byStatus(models.CallStatusFailed)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].CompletedAt)
}

func TestInitiateCallLeadNotFound(t *testing.T) {
	f := newCallServiceFixture(t)

	_, err := f.svc.InitiateCall("user-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.InitiateCall("user-2", "lead-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInitiateCallTerminalLead(t *testing.T) {
	f := newCallServiceFixture(t)
	f.lead.Status = models.LeadStatusLost

	_, err := f.svc.InitiateCall("user-1", "lead-1")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.gateway.requests)
}

func TestGetCallScopedToOwner(t *testing.T) {
	f := newCallServiceFixture(t)
	call := &models.Call{LeadID: "lead-1", Status: models.CallStatusCompleted, Lead: *f.lead}
	require.NoError(t, f.calls.Create(call))

	got, err := f.svc.GetCall("user-1", call.ID)
	require.NoError(t, err)
	assert.Equal(t, call.ID, got.ID)

	_, err = f.svc.GetCall("user-2", call.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPollCallStatus(t *testing.T) {
	f := newCallServiceFixture(t)
	blandID := "bl-55"
	inProgress := &models.Call{LeadID: "lead-1", Status: models.CallStatusInProgress, BlandCallID: &blandID, Lead: *f.lead}
	require.NoError(t, f.calls.Create(inProgress))
	done := &models.Call{LeadID: "lead-1", Status: models.CallStatusCompleted, Lead: *f.lead}
	require.NoError(t, f.calls.Create(done))

	call, live, err := f.svc.PollCallStatus("user-1", inProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusInProgress, call.Status)
	require.NotNil(t, live)
	assert.Equal(t, "bl-55", live.CallID)

	call, live, err = f.svc.PollCallStatus("user-1", done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCompleted, call.Status)
	assert.Nil(t, live, "terminal calls are not re-polled")
}
