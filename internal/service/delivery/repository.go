package delivery

import (
	"context"
	"time"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/personalize"
)

// Repository defines the data access contract for the delivery engine.
// Every method is scoped by organization id where a campaign is
// involved; rows belonging to another organization are invisible.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateCampaign inserts a new draft campaign and returns its ID.
	CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error)

	// GetCampaign returns a single campaign. Returns ErrNotFound if it
	// doesn't exist in the given organization.
	GetCampaign(ctx context.Context, orgID, id string) (*domain.Campaign, error)

	// BeginSend atomically transitions the campaign from draft or
	// failed to sending and stamps sent_at with the attempt time. The
	// update is conditional on the prior status (compare-and-swap);
	// two concurrent calls can never both succeed. Returns
	// ErrAlreadySending when the guard fails and ErrNotFound when the
	// campaign doesn't exist.
	BeginSend(ctx context.Context, orgID, id string, at time.Time) error

	// FinishSend writes the campaign's terminal status and the final
	// recipient count. Called exactly once per send, after the batch.
	FinishSend(ctx context.Context, orgID, id string, status domain.CampaignStatus, recipientCount int) error

	// CreateRecipient inserts a queued recipient row carrying its
	// freshly minted tracking token.
	CreateRecipient(ctx context.Context, r *domain.Recipient) error

	// SetRecipientStatus records the outcome of one delivery attempt.
	// lastError is empty for successful sends.
	SetRecipientStatus(ctx context.Context, recipientID string, status domain.RecipientStatus, lastError string) error

	// GetOrganization returns the sender identity for an organization.
	// Returns ErrOrgNotFound if it doesn't exist.
	GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error)
}

// AudienceResolver yields the deduplicated, email-bearing member set a
// campaign targets. Implemented by the audience package.
type AudienceResolver interface {
	Resolve(ctx context.Context, orgID string, f *domain.AudienceFilter) ([]domain.Member, error)
}

// Renderer produces the final per-recipient payloads. Implemented by
// the personalize package.
type Renderer interface {
	Render(body, firstName, token string) (*personalize.Message, error)
}
