package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/token"
)

// CreateRecipient inserts a queued recipient row. The unique indexes
// on (campaign_id, member_id) and on token make both the one-row-per-
// member invariant and token uniqueness database-enforced.
func (s *Store) CreateRecipient(ctx context.Context, r *domain.Recipient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_recipients
			(id, campaign_id, member_id, email, token, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, r.ID, r.CampaignID, r.MemberID, r.Email, r.Token, r.Status)
	if err != nil {
		return fmt.Errorf("create recipient: %w", err)
	}
	return nil
}

// SetRecipientStatus records the outcome of one delivery attempt.
func (s *Store) SetRecipientStatus(ctx context.Context, recipientID string, status domain.RecipientStatus, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaign_recipients
		SET status = $1, last_error = $2
		WHERE id = $3
	`, status, lastError, recipientID)
	if err != nil {
		return fmt.Errorf("set recipient status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("set recipient status: recipient %s not found", recipientID)
	}
	return nil
}

// Resolve maps a tracking token to its (campaign, member, recipient)
// triple. Implements token.Resolver.
func (s *Store) Resolve(ctx context.Context, tok string) (*token.Resolution, error) {
	r := &token.Resolution{}
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.campaign_id, r.member_id, c.organization_id
		FROM campaign_recipients r
		JOIN campaigns c ON c.id = r.campaign_id
		WHERE r.token = $1
	`, tok).Scan(&r.RecipientID, &r.CampaignID, &r.MemberID, &r.OrganizationID)
	if err == sql.ErrNoRows {
		return nil, token.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return r, nil
}

// ListRecipients returns a campaign's recipient rows so operators can
// inspect per-recipient outcomes after a send.
func (s *Store) ListRecipients(ctx context.Context, orgID, campaignID string) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.campaign_id, r.member_id, r.email, r.token,
		       r.status, COALESCE(r.last_error,''), r.created_at
		FROM campaign_recipients r
		JOIN campaigns c ON c.id = r.campaign_id
		WHERE r.campaign_id = $1 AND c.organization_id = $2
		ORDER BY r.created_at
	`, campaignID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.MemberID, &r.Email, &r.Token,
			&r.Status, &r.LastError, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
