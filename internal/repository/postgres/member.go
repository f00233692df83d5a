package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/service/delivery"
)

// ListMembers returns the organization's members matching the filter,
// restricted to rows with a non-empty email. An unknown organization
// yields an empty list, not an error; the resolver treats both the
// same way the legacy system did.
func (s *Store) ListMembers(ctx context.Context, orgID string, f *domain.AudienceFilter) ([]domain.Member, error) {
	q := `
		SELECT id, organization_id, email, first_name, status, COALESCE(category,'')
		FROM members
		WHERE organization_id = $1 AND email IS NOT NULL AND email <> ''`
	args := []interface{}{orgID}
	idx := 2

	if f != nil && len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q += fmt.Sprintf(" AND status = ANY($%d)", idx)
		args = append(args, pq.Array(statuses))
		idx++
	}
	if f != nil && len(f.Categories) > 0 {
		q += fmt.Sprintf(" AND category = ANY($%d)", idx)
		args = append(args, pq.Array(f.Categories))
		idx++
	}
	q += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.Email, &m.FirstName, &m.Status, &m.Category); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetOrganization returns the sender identity for an organization.
func (s *Store) GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	o := &domain.Organization{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(contact_email,'')
		FROM organizations
		WHERE id = $1
	`, orgID).Scan(&o.ID, &o.Name, &o.ContactEmail)
	if err == sql.ErrNoRows {
		return nil, delivery.ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}
