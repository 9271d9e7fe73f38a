package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestClaimWinsWhenRowStillDue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadCampaignRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "lead_campaigns" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	claimed, err := repo.Claim("enr-1", time.Now())
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimLosesWhenRowAlreadyTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadCampaignRepository(db)

	// Another sweep already cleared next_scheduled_call, so the conditional
	// update matches no rows
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "lead_campaigns" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	claimed, err := repo.Claim("enr-1", time.Now())
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDuePreloadsLeadAndOrderedSteps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadCampaignRepository(db)
	now := time.Now()
	due := now.Add(-time.Minute)

	mock.ExpectQuery(`SELECT .* FROM "lead_campaigns" WHERE is_active = .* AND next_scheduled_call IS NOT NULL AND next_scheduled_call <= .* ORDER BY next_scheduled_call ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "campaign_id", "current_step", "next_scheduled_call", "is_active"}).
			AddRow("enr-1", "lead-1", "camp-1", 2, due, true))

	// Preloads run alphabetically: Campaign, Campaign.Steps, Lead
	mock.ExpectQuery(`SELECT .* FROM "campaigns" WHERE "campaigns"\."id" = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "is_active"}).
			AddRow("camp-1", "user-1", "Open house follow-up", true))
	mock.ExpectQuery(`SELECT .* FROM "campaign_steps" WHERE "campaign_steps"\."campaign_id" = .* ORDER BY step_number ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "step_number", "delay_minutes", "script_template", "is_active"}).
			AddRow("step-1", "camp-1", 1, 0, "Hi {firstName}", true).
			AddRow("step-2", "camp-1", 2, 60, "Hi again {firstName}", true))
	mock.ExpectQuery(`SELECT .* FROM "leads" WHERE "leads"\."id" = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "first_name", "phone", "status"}).
			AddRow("lead-1", "user-1", "Sarah", "+15550100", "NEW"))

	enrollments, err := repo.FindDue(now)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 2, enrollments[0].CurrentStep)
	assert.Equal(t, "Sarah", enrollments[0].Lead.FirstName)
	require.Len(t, enrollments[0].Campaign.Steps, 2)
	assert.Equal(t, 1, enrollments[0].Campaign.Steps[0].StepNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateClearsSchedule(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadCampaignRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "lead_campaigns" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Deactivate("enr-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
