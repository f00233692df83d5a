package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medlemsys/campaign-engine/internal/domain"
)

// RecordEvent appends one engagement event and bumps the campaign's
// aggregate counter for it. Events are append-only; tracking data
// accumulates for the life of the campaign record.
func (s *Store) RecordEvent(ctx context.Context, e *domain.TrackingEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracking_events
			(id, organization_id, campaign_id, recipient_id, member_id,
			 event_type, link_url, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`, e.ID, e.OrganizationID, e.CampaignID, e.RecipientID, e.MemberID,
		e.EventType, e.LinkURL, e.IPAddress, e.UserAgent)
	if err != nil {
		return fmt.Errorf("record tracking event: %w", err)
	}

	var counter string
	switch e.EventType {
	case domain.EventOpen:
		counter = "open_count"
	case domain.EventClick:
		counter = "click_count"
	default:
		return nil
	}
	// counter comes from the switch above, never from input.
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE campaigns SET %s = %s + 1 WHERE id = $1 AND organization_id = $2`, counter, counter),
		e.CampaignID, e.OrganizationID)
	if err != nil {
		return fmt.Errorf("bump campaign %s: %w", counter, err)
	}
	return nil
}
