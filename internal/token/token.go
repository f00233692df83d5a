// Package token mints and resolves the opaque per-recipient tracking
// tokens that correlate inbound open/click events to a recipient.
//
// Tokens are write-once: minted exactly once at recipient-creation
// time and never reused across campaigns or recipients, even for the
// same member. There is no expiry; a token resolves for the life of
// the recipient row it belongs to.
package token

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a token does not resolve to a recipient.
var ErrNotFound = errors.New("tracking token not found")

// New mints a fresh tracking token. UUIDv4 carries 122 bits of
// randomness, which keeps guessing a valid token computationally
// infeasible without any server-side secret.
func New() string {
	return uuid.New().String()
}

// Valid reports whether s is syntactically a token this engine could
// have minted. It says nothing about whether the token exists.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Resolution is the (campaign, member, recipient) triple a token maps to.
type Resolution struct {
	OrganizationID string
	CampaignID     string
	MemberID       string
	RecipientID    string
}

// Resolver looks tokens up in durable storage. Implementations return
// ErrNotFound for unknown tokens; every other error is a storage fault.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Resolution, error)
}
