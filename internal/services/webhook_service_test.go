package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voicereachhq/voicereach-backend/internal/apperrors"
	"github.com/voicereachhq/voicereach-backend/internal/models"
)

type fakeWebhookCalls struct {
	mu    sync.Mutex
	calls map[string]*models.Call
}

func newFakeWebhookCalls() *fakeWebhookCalls {
	return &fakeWebhookCalls{calls: make(map[string]*models.Call)}
}

func (f *fakeWebhookCalls) add(call *models.Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call.ID] = call
}

func (f *fakeWebhookCalls) GetByBlandCallIDForUpdate(blandCallID string) (*models.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if call.BlandCallID != nil && *call.BlandCallID == blandCallID {
			copied := *call
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWebhookCalls) Save(call *models.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *call
	f.calls[call.ID] = &copied
	return nil
}

func (f *fakeWebhookCalls) Transaction(fn func(store webhookCallStore) error) error {
	return fn(f)
}

type fakeWebhookLeads struct {
	mu    sync.Mutex
	leads map[string]*models.Lead
}

func (f *fakeWebhookLeads) GetByID(id string) (*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeWebhookLeads) UpdateStatus(leadID string, status models.LeadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[leadID].Status = status
	return nil
}

type webhookFixture struct {
	svc       *WebhookService
	calls     *fakeWebhookCalls
	leads     *fakeWebhookLeads
	publisher *fakePublisher
	call      *models.Call
	lead      *models.Lead
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		calls:     newFakeWebhookCalls(),
		leads:     &fakeWebhookLeads{leads: make(map[string]*models.Lead)},
		publisher: &fakePublisher{},
	}
	f.lead = &models.Lead{
		ID:     "lead-1",
		UserID: "user-1",
		Status: models.LeadStatusNew,
	}
	f.leads.leads[f.lead.ID] = f.lead

	blandID := "bl-123"
	f.call = &models.Call{
		ID:          "call-1",
		LeadID:      f.lead.ID,
		Status:      models.CallStatusInProgress,
		BlandCallID: &blandID,
		ScheduledAt: time.Now().Add(-5 * time.Minute),
	}
	f.calls.add(f.call)

	f.svc = NewWebhookService(f.calls, f.leads, f.publisher)
	return f
}

func intPtr(n int) *int { return &n }

func TestProcessWebhookCompletedQualified(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID:       "bl-123",
		Status:       "completed",
		Duration:     intPtr(184),
		RecordingURL: "https://recordings.example.com/bl-123.mp3",
		Transcript:   "Yes, I am still looking to buy",
		CompletedAt:  "2025-01-09T10:35:00Z",
		Analysis:     &models.BlandWebhookAnalysis{Qualified: true},
	})

	require.NoError(t, err)
	stored := f.calls.calls["call-1"]
	assert.Equal(t, models.CallStatusCompleted, stored.Status)
	require.NotNil(t, stored.Outcome)
	assert.Equal(t, models.CallOutcomeQualified, *stored.Outcome)
	assert.Equal(t, 184, *stored.Duration)
	assert.Equal(t, "https://recordings.example.com/bl-123.mp3", stored.RecordingURL)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, "2025-01-09T10:35:00Z", stored.CompletedAt.UTC().Format(time.RFC3339))

	assert.Equal(t, models.LeadStatusQualified, f.leads.leads["lead-1"].Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.CallEventCompleted, f.publisher.events[0].EventType)
	assert.Equal(t, "user-1", f.publisher.events[0].UserID)
}

func TestProcessWebhookUnknownCallID(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID: "bl-unknown",
		Status: "completed",
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, models.CallStatusInProgress, f.calls.calls["call-1"].Status)
}

func TestProcessWebhookTerminalGuard(t *testing.T) {
	f := newWebhookFixture(t)
	f.call.Status = models.CallStatusCompleted
	completedAt := time.Now().Add(-time.Minute)
	f.call.CompletedAt = &completedAt
	f.calls.add(f.call)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID:   "bl-123",
		Status:   "in-progress",
		Duration: intPtr(42),
	})

	require.NoError(t, err)
	stored := f.calls.calls["call-1"]
	assert.Equal(t, models.CallStatusCompleted, stored.Status, "late in-progress must not downgrade a finished call")
	assert.Nil(t, stored.Duration, "a dropped update applies nothing")
	assert.Empty(t, f.publisher.events)
}

func TestProcessWebhookDuplicateDeliveryIdempotent(t *testing.T) {
	f := newWebhookFixture(t)
	payload := &models.BlandWebhookPayload{
		CallID:   "bl-123",
		Status:   "completed",
		Duration: intPtr(120),
		Analysis: &models.BlandWebhookAnalysis{AppointmentScheduled: true},
	}

	require.NoError(t, f.svc.ProcessWebhook(payload))
	first := *f.calls.calls["call-1"]
	firstLead := f.leads.leads["lead-1"].Status

	require.NoError(t, f.svc.ProcessWebhook(payload))
	second := *f.calls.calls["call-1"]

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.Outcome, *second.Outcome)
	assert.Equal(t, firstLead, f.leads.leads["lead-1"].Status)
	assert.Equal(t, models.LeadStatusScheduled, f.leads.leads["lead-1"].Status)
}

func TestProcessWebhookFailedCall(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID: "bl-123",
		Status: "failed",
	})

	require.NoError(t, err)
	stored := f.calls.calls["call-1"]
	assert.Equal(t, models.CallStatusFailed, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Nil(t, stored.Outcome)
	assert.Equal(t, models.LeadStatusNew, f.leads.leads["lead-1"].Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.CallEventFailed, f.publisher.events[0].EventType)
}

func TestProcessWebhookFailedCallWithAnalysis(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID:   "bl-123",
		Status:   "failed",
		Duration: intPtr(95),
		Analysis: &models.BlandWebhookAnalysis{Qualified: true},
	})

	require.NoError(t, err)
	stored := f.calls.calls["call-1"]
	assert.Equal(t, models.CallStatusFailed, stored.Status)
	require.NotNil(t, stored.Outcome, "analysis on a failed call still classifies")
	assert.Equal(t, models.CallOutcomeQualified, *stored.Outcome)
	assert.Equal(t, models.LeadStatusQualified, f.leads.leads["lead-1"].Status)
}

func TestProcessWebhookCompletedWithoutAnalysis(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID:   "bl-123",
		Status:   "completed",
		Duration: intPtr(12),
	})

	require.NoError(t, err)
	stored := f.calls.calls["call-1"]
	assert.Equal(t, models.CallStatusCompleted, stored.Status)
	assert.Nil(t, stored.Outcome, "no analysis means no classification, even for short calls")
	assert.Equal(t, models.LeadStatusContacted, f.leads.leads["lead-1"].Status)
}

func TestProcessWebhookDoesNotDemoteQualifiedLead(t *testing.T) {
	f := newWebhookFixture(t)
	f.lead.Status = models.LeadStatusQualified
	f.leads.leads["lead-1"] = f.lead

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID:   "bl-123",
		Status:   "completed",
		Duration: intPtr(200),
		Analysis: &models.BlandWebhookAnalysis{},
	})

	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, f.leads.leads["lead-1"].Status)
}

func TestProcessWebhookLeavesClosedLeadAlone(t *testing.T) {
	f := newWebhookFixture(t)
	f.lead.Status = models.LeadStatusClosed
	f.leads.leads["lead-1"] = f.lead

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID:   "bl-123",
		Status:   "completed",
		Analysis: &models.BlandWebhookAnalysis{Qualified: true},
	})

	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusClosed, f.leads.leads["lead-1"].Status)
}

func TestProcessWebhookUnknownStatus(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(&models.BlandWebhookPayload{
		CallID: "bl-123",
		Status: "ringing",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestClassifyOutcomePriority(t *testing.T) {
	cases := []struct {
		name    string
		payload models.BlandWebhookPayload
		want    *models.CallOutcome
	}{
		{
			name:    "no analysis",
			payload: models.BlandWebhookPayload{Duration: intPtr(5)},
			want:    nil,
		},
		{
			name: "qualified beats everything",
			payload: models.BlandWebhookPayload{
				Duration:   intPtr(5),
				Transcript: "voicemail",
				Analysis: &models.BlandWebhookAnalysis{
					Qualified:            true,
					CallbackRequested:    true,
					AppointmentScheduled: true,
				},
			},
			want: outcomePtr(models.CallOutcomeQualified),
		},
		{
			name: "callback beats appointment",
			payload: models.BlandWebhookPayload{
				Analysis: &models.BlandWebhookAnalysis{
					CallbackRequested:    true,
					AppointmentScheduled: true,
				},
			},
			want: outcomePtr(models.CallOutcomeCallbackRequested),
		},
		{
			name: "appointment scheduled",
			payload: models.BlandWebhookPayload{
				Analysis: &models.BlandWebhookAnalysis{AppointmentScheduled: true},
			},
			want: outcomePtr(models.CallOutcomeAppointmentScheduled),
		},
		{
			name: "voicemail in transcript",
			payload: models.BlandWebhookPayload{
				Transcript: "Please leave a message after the Voicemail tone",
				Duration:   intPtr(10),
				Analysis:   &models.BlandWebhookAnalysis{},
			},
			want: outcomePtr(models.CallOutcomeVoicemail),
		},
		{
			name: "short call is no answer",
			payload: models.BlandWebhookPayload{
				Duration: intPtr(29),
				Analysis: &models.BlandWebhookAnalysis{},
			},
			want: outcomePtr(models.CallOutcomeNoAnswer),
		},
		{
			name: "thirty seconds is not short",
			payload: models.BlandWebhookPayload{
				Duration: intPtr(30),
				Analysis: &models.BlandWebhookAnalysis{},
			},
			want: outcomePtr(models.CallOutcomeNotQualified),
		},
		{
			name: "default not qualified",
			payload: models.BlandWebhookPayload{
				Duration: intPtr(120),
				Analysis: &models.BlandWebhookAnalysis{Sentiment: "neutral"},
			},
			want: outcomePtr(models.CallOutcomeNotQualified),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyOutcome(&tc.payload)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func outcomePtr(o models.CallOutcome) *models.CallOutcome { return &o }
