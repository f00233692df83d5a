package domain

import "time"

// RecipientStatus enumerates the lifecycle of a single delivery attempt.
type RecipientStatus string

const (
	RecipientQueued RecipientStatus = "queued"
	RecipientSent   RecipientStatus = "sent"
	RecipientFailed RecipientStatus = "failed"
)

// Recipient is the per-member record of one campaign's delivery
// attempt. Exactly one row exists per (campaign, member) pair; the row
// is created before the transport is invoked for it.
type Recipient struct {
	ID         string          `json:"id" db:"id"`
	CampaignID string          `json:"campaign_id" db:"campaign_id"`
	MemberID   string          `json:"member_id" db:"member_id"`
	// Email is the address resolved at send time; later edits to the
	// member record do not retroactively change it.
	Email string `json:"email" db:"email"`
	// Token is the opaque, write-once tracking token correlating
	// inbound open/click events to this recipient. Unique system-wide.
	Token     string          `json:"token" db:"token"`
	Status    RecipientStatus `json:"status" db:"status"`
	// LastError holds the raw transport error for failed recipients so
	// operators can follow up manually.
	LastError string    `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
