// Package audience resolves a campaign's targeting filter against the
// organization's member set.
package audience

import (
	"context"
	"fmt"

	"github.com/medlemsys/campaign-engine/internal/domain"
)

// DefaultFilter is applied when a campaign carries no filter: active
// members only. An absent filter must never widen to "all members".
var DefaultFilter = &domain.AudienceFilter{
	Statuses: []domain.MemberStatus{domain.MemberActive},
}

// MemberLister is the slice of the campaign store the resolver reads.
// Implementations return an empty list (not an error) for an unknown
// organization; absence of matches and absence of the organization are
// indistinguishable to the operator.
type MemberLister interface {
	ListMembers(ctx context.Context, orgID string, f *domain.AudienceFilter) ([]domain.Member, error)
}

// Resolver evaluates audience filters.
type Resolver struct {
	members MemberLister
}

// NewResolver creates a Resolver over the given member store.
func NewResolver(members MemberLister) *Resolver {
	return &Resolver{members: members}
}

// Resolve returns the ordered, deduplicated set of members eligible to
// receive a campaign: each result appears once, carries a non-empty
// email, and satisfies the effective filter. A nil or empty filter
// resolves with DefaultFilter.
func (r *Resolver) Resolve(ctx context.Context, orgID string, f *domain.AudienceFilter) ([]domain.Member, error) {
	if f.Empty() {
		f = DefaultFilter
	}

	members, err := r.members.ListMembers(ctx, orgID, f)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	seen := make(map[string]bool, len(members))
	out := make([]domain.Member, 0, len(members))
	for _, m := range members {
		// Empty addresses are excluded unconditionally, before any
		// filter logic, no matter what the store hands back.
		if m.Email == "" {
			continue
		}
		if !Matches(f, &m) {
			continue
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, nil
}

// Matches reports whether a member satisfies the filter. A clause only
// constrains when present; when both status and category sets are
// given the member must satisfy both (intersection).
func Matches(f *domain.AudienceFilter, m *domain.Member) bool {
	if f == nil {
		return true
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, m.Status) {
		return false
	}
	if len(f.Categories) > 0 && !containsString(f.Categories, m.Category) {
		return false
	}
	return true
}

func containsStatus(set []domain.MemberStatus, s domain.MemberStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
