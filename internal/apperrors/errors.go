package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the campaign and call domain. Handlers map these to
// HTTP status codes with errors.Is; services wrap them with context using
// fmt.Errorf and %w.
var (
	// ErrNotFound indicates a requested resource (lead, campaign, call,
	// enrollment) was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates failure during request validation.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyEnrolled indicates the lead is already enrolled in the campaign.
	ErrAlreadyEnrolled = errors.New("lead already enrolled in campaign")
	// ErrCampaignInactive indicates the campaign is missing or inactive.
	ErrCampaignInactive = errors.New("campaign not found or inactive")
	// ErrNoStepsDefined indicates the campaign has no steps to schedule.
	ErrNoStepsDefined = errors.New("campaign has no steps")
	// ErrGateway indicates the voice provider rejected or timed out.
	ErrGateway = errors.New("voice gateway error")
	// ErrUnauthorized indicates an authorization failure.
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrDatabase indicates a general database interaction error.
	ErrDatabase = errors.New("database error")
)

// Wrap annotates err with a message while keeping the chain intact
func Wrap(err error, message string, args ...interface{}) error {
	format := message + ": %w"
	allArgs := append(args, err)
	return fmt.Errorf(format, allArgs...)
}
