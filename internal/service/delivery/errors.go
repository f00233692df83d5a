package delivery

import "errors"

// Sentinel errors for the delivery service layer.
var (
	ErrNotFound       = errors.New("campaign not found")
	ErrOrgNotFound    = errors.New("organization not found")
	ErrAlreadySending = errors.New("campaign is already sending or sent")
	ErrSendInProgress = errors.New("another send is in progress for this campaign")
	ErrEmptyAudience  = errors.New("no audience found for campaign")
	ErrSkippedMembers = errors.New("some members could not be enqueued")
)
