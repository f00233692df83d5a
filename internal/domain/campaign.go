package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
//
// Transitions are monotonic: draft → sending → sent, with failed
// reachable from sending only when the batch could not be dispatched at
// all. sent is terminal; failed may be retried with a fresh Send.
type CampaignStatus string

const (
	CampaignDraft   CampaignStatus = "draft"
	CampaignSending CampaignStatus = "sending"
	CampaignSent    CampaignStatus = "sent"
	CampaignFailed  CampaignStatus = "failed"
)

// Campaign represents a single outbound email broadcast belonging to
// one organization.
type Campaign struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	Subject        string          `json:"subject" db:"subject"`
	Body           string          `json:"body" db:"body"`
	ReplyTo        string          `json:"reply_to" db:"reply_to"`
	Filter         *AudienceFilter `json:"filter" db:"filter"`
	Status         CampaignStatus  `json:"status" db:"status"`

	// RecipientCount is the number of recipients the transport accepted.
	// It is written exactly once, after the full batch completes, and
	// reads as zero while the campaign is still sending.
	RecipientCount int `json:"recipient_count" db:"recipient_count"`

	// Engagement counters, incremented by the tracking endpoints.
	OpenCount  int `json:"open_count" db:"open_count"`
	ClickCount int `json:"click_count" db:"click_count"`

	// SentAt records when the send attempt began, not when it finished.
	SentAt    *time.Time `json:"sent_at" db:"sent_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Sendable reports whether a Send call may be accepted for the
// campaign's current status. A fully sent campaign can never be
// re-sent; a failed one (e.g. empty audience) may be retried.
func (c *Campaign) Sendable() bool {
	return c.Status == CampaignDraft || c.Status == CampaignFailed
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignSent || c.Status == CampaignFailed
}

// AudienceFilter is the declarative targeting rule narrowing a
// campaign's recipients. Both sets are optional; an absent filter means
// the caller gets the engine-wide default (active members only).
type AudienceFilter struct {
	Statuses   []MemberStatus `json:"statuses,omitempty" yaml:"statuses"`
	Categories []string       `json:"categories,omitempty" yaml:"categories"`
}

// Empty reports whether the filter constrains nothing.
func (f *AudienceFilter) Empty() bool {
	return f == nil || (len(f.Statuses) == 0 && len(f.Categories) == 0)
}
