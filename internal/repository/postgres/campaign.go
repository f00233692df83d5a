package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/service/delivery"
)

// CreateCampaign inserts a new draft campaign and returns its ID.
func (s *Store) CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	filter, err := marshalFilter(c.Filter)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, organization_id, subject, body, reply_to, filter, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, c.ID, c.OrganizationID, c.Subject, c.Body, c.ReplyTo, filter, c.Status)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

// GetCampaign returns a single campaign scoped to its organization.
func (s *Store) GetCampaign(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var filter []byte
	var sentAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, subject, body, COALESCE(reply_to,''),
		       filter, status, recipient_count, open_count, click_count,
		       sent_at, created_at
		FROM campaigns
		WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(
		&c.ID, &c.OrganizationID, &c.Subject, &c.Body, &c.ReplyTo,
		&filter, &c.Status, &c.RecipientCount, &c.OpenCount, &c.ClickCount,
		&sentAt, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, delivery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if sentAt.Valid {
		c.SentAt = &sentAt.Time
	}
	if c.Filter, err = unmarshalFilter(filter); err != nil {
		return nil, err
	}
	return c, nil
}

// BeginSend performs the conditional draft|failed → sending transition
// and stamps the attempt time. The WHERE clause is the compare-and-swap
// guaranteeing at most one concurrent send per campaign.
func (s *Store) BeginSend(ctx context.Context, orgID, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $1, sent_at = $2
		WHERE id = $3 AND organization_id = $4 AND status IN ('draft', 'failed')
	`, domain.CampaignSending, at, id, orgID)
	if err != nil {
		return fmt.Errorf("begin send: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	// The guard failed: either the campaign doesn't exist or it is
	// already sending/sent. Disambiguate for the caller.
	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1 AND organization_id = $2)
	`, id, orgID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("begin send: %w", err)
	}
	if !exists {
		return delivery.ErrNotFound
	}
	return delivery.ErrAlreadySending
}

// FinishSend writes the terminal status and the final recipient count.
func (s *Store) FinishSend(ctx context.Context, orgID, id string, status domain.CampaignStatus, recipientCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $1, recipient_count = $2
		WHERE id = $3 AND organization_id = $4
	`, status, recipientCount, id, orgID)
	if err != nil {
		return fmt.Errorf("finish send: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return delivery.ErrNotFound
	}
	return nil
}

func marshalFilter(f *domain.AudienceFilter) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	return data, nil
}

func unmarshalFilter(data []byte) (*domain.AudienceFilter, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var f domain.AudienceFilter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal filter: %w", err)
	}
	return &f, nil
}
