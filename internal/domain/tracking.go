package domain

import "time"

// TrackingEventType enumerates the engagement events the tracking
// endpoints record.
type TrackingEventType string

const (
	EventOpen  TrackingEventType = "open"
	EventClick TrackingEventType = "click"
)

// TrackingEvent represents a single engagement event from a mail
// client, correlated to a recipient through its token. Events are
// append-only and accumulate for the life of the campaign record.
type TrackingEvent struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	CampaignID     string            `json:"campaign_id"`
	RecipientID    string            `json:"recipient_id"`
	MemberID       string            `json:"member_id"`
	EventType      TrackingEventType `json:"event_type"`
	LinkURL        string            `json:"link_url,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
	UserAgent      string            `json:"user_agent,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
