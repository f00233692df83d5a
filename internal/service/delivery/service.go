package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/pkg/distlock"
	"github.com/medlemsys/campaign-engine/internal/pkg/logger"
	"github.com/medlemsys/campaign-engine/internal/token"
	"github.com/medlemsys/campaign-engine/internal/transport"
)

// Options tunes the orchestrator.
type Options struct {
	// Workers bounds the recipient fan-out pool. Values below 1 mean
	// sequential processing, the legacy behavior.
	Workers int

	// StrictRecipientErrors surfaces members whose recipient row could
	// not be created as an aggregate ErrSkippedMembers after the batch
	// completes. When false they are logged and silently omitted from
	// all counts, matching the legacy behavior.
	StrictRecipientErrors bool

	// Locks, when non-nil, guards each send with a per-campaign
	// distributed lock. The conditional status update in the store is
	// the authoritative double-send guard either way.
	Locks   *distlock.Factory
	LockTTL time.Duration
}

// Service orchestrates campaign delivery: the status state machine,
// the per-recipient fan-out, and the final rollup.
type Service struct {
	repo      Repository
	audience  AudienceResolver
	renderer  Renderer
	transport transport.Transport
	opts      Options
}

// NewService creates a delivery service.
func NewService(repo Repository, audience AudienceResolver, renderer Renderer, tr transport.Transport, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	return &Service{repo: repo, audience: audience, renderer: renderer, transport: tr, opts: opts}
}

// CreateInput holds the fields for creating a new draft campaign.
type CreateInput struct {
	Subject string                 `json:"subject"`
	Body    string                 `json:"body"`
	ReplyTo string                 `json:"reply_to"`
	Filter  *domain.AudienceFilter `json:"filter"`
}

// CreateDraft validates and persists a new campaign in draft status.
func (s *Service) CreateDraft(ctx context.Context, orgID string, input CreateInput) (*domain.Campaign, error) {
	if input.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if input.Body == "" {
		return nil, fmt.Errorf("body is required")
	}

	c := &domain.Campaign{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Subject:        input.Subject,
		Body:           input.Body,
		ReplyTo:        input.ReplyTo,
		Filter:         input.Filter,
		Status:         domain.CampaignDraft,
	}
	id, err := s.repo.CreateCampaign(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	c.ID = id
	return c, nil
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	return s.repo.GetCampaign(ctx, orgID, id)
}

// Report summarizes one send invocation for the caller. Sent is the
// transport-confirmed count that also lands in recipient_count.
type Report struct {
	CampaignID string   `json:"campaign_id"`
	Resolved   int      `json:"resolved"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Skipped    []string `json:"skipped,omitempty"` // member ids without a recipient row
}

// Send runs the full delivery batch for a campaign.
//
// The campaign must be in draft or failed status; sent campaigns are
// rejected without side effects. The status flips to sending (with the
// attempt time stamped) before any recipient is contacted, so a crash
// mid-batch leaves the campaign visibly sending rather than silently
// draft. An empty resolved audience fails the campaign fast with
// ErrEmptyAudience and creates no recipient rows. Individual transport
// failures never abort the batch; the campaign still finishes sent and
// the failed recipients stay inspectable on their rows.
func (s *Service) Send(ctx context.Context, orgID, campaignID string) (*Report, error) {
	c, err := s.repo.GetCampaign(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !c.Sendable() {
		return nil, ErrAlreadySending
	}

	if s.opts.Locks != nil {
		lock := s.opts.Locks.ForKey("campaign-send:"+campaignID, s.opts.LockTTL)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire send lock: %w", err)
		}
		if !ok {
			return nil, ErrSendInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release send lock failed", "campaign_id", campaignID, "error", err)
			}
		}()
	}

	// Conditional transition draft|failed → sending. This is the
	// atomic double-send guard; the Sendable check above only gives a
	// friendlier error without a write.
	if err := s.repo.BeginSend(ctx, orgID, campaignID, time.Now().UTC()); err != nil {
		return nil, err
	}

	members, err := s.audience.Resolve(ctx, orgID, c.Filter)
	if err != nil {
		s.finish(ctx, orgID, campaignID, domain.CampaignFailed, 0)
		return nil, fmt.Errorf("resolve audience: %w", err)
	}
	if len(members) == 0 {
		s.finish(ctx, orgID, campaignID, domain.CampaignFailed, 0)
		return nil, ErrEmptyAudience
	}

	logger.Info("campaign send started",
		"campaign_id", campaignID, "org_id", orgID, "resolved", len(members))

	report := s.deliver(ctx, c, org, members)
	report.CampaignID = campaignID

	// A campaign with some failed recipients still ends in sent; only
	// the confirmed sends count toward recipient_count, written once
	// after the whole batch.
	if err := s.repo.FinishSend(ctx, orgID, campaignID, domain.CampaignSent, report.Sent); err != nil {
		return report, fmt.Errorf("finalize campaign: %w", err)
	}

	logger.Info("campaign send finished",
		"campaign_id", campaignID, "sent", report.Sent, "failed", report.Failed, "skipped", len(report.Skipped))

	if s.opts.StrictRecipientErrors && len(report.Skipped) > 0 {
		return report, fmt.Errorf("%w: members %s", ErrSkippedMembers, strings.Join(report.Skipped, ", "))
	}
	return report, nil
}

// deliver fans the batch out across the worker pool and waits for it
// to drain. Each task creates the recipient row before the transport
// call so the token exists before content referencing it is sent.
func (s *Service) deliver(ctx context.Context, c *domain.Campaign, org *domain.Organization, members []domain.Member) *Report {
	report := &Report{Resolved: len(members)}
	var mu sync.Mutex

	jobs := make(chan domain.Member)
	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				s.deliverOne(ctx, c, org, m, report, &mu)
			}
		}()
	}
	for _, m := range members {
		jobs <- m
	}
	close(jobs)
	wg.Wait()

	return report
}

// deliverOne processes a single recipient end to end. Failures are
// isolated here: every exit path records an outcome for this member
// without touching its siblings.
func (s *Service) deliverOne(ctx context.Context, c *domain.Campaign, org *domain.Organization, m domain.Member, report *Report, mu *sync.Mutex) {
	rec := &domain.Recipient{
		ID:         uuid.New().String(),
		CampaignID: c.ID,
		MemberID:   m.ID,
		Email:      m.Email,
		Token:      token.New(),
		Status:     domain.RecipientQueued,
	}
	if err := s.repo.CreateRecipient(ctx, rec); err != nil {
		logger.Warn("recipient row creation failed, member skipped",
			"campaign_id", c.ID, "member_id", m.ID, "error", err)
		mu.Lock()
		report.Skipped = append(report.Skipped, m.ID)
		mu.Unlock()
		return
	}

	msg, err := s.renderer.Render(c.Body, m.FirstName, rec.Token)
	if err != nil {
		s.recordOutcome(ctx, rec.ID, domain.RecipientFailed, fmt.Sprintf("render: %v", err))
		mu.Lock()
		report.Failed++
		mu.Unlock()
		return
	}

	email := &domain.EmailMessage{
		To:        m.Email,
		FromName:  org.Name,
		FromEmail: org.ContactEmail,
		ReplyTo:   c.ReplyTo,
		Subject:   c.Subject,
		HTML:      msg.HTML,
		Text:      msg.Text,
	}

	res, err := s.transport.Send(ctx, email)
	switch {
	case err != nil:
		s.recordOutcome(ctx, rec.ID, domain.RecipientFailed, err.Error())
		mu.Lock()
		report.Failed++
		mu.Unlock()
	case !res.Success:
		s.recordOutcome(ctx, rec.ID, domain.RecipientFailed, res.Error)
		mu.Lock()
		report.Failed++
		mu.Unlock()
	default:
		s.recordOutcome(ctx, rec.ID, domain.RecipientSent, "")
		mu.Lock()
		report.Sent++
		mu.Unlock()
	}
}

func (s *Service) recordOutcome(ctx context.Context, recipientID string, status domain.RecipientStatus, lastError string) {
	if err := s.repo.SetRecipientStatus(ctx, recipientID, status, lastError); err != nil {
		logger.Error("persist recipient outcome failed",
			"recipient_id", recipientID, "status", string(status), "error", err)
	}
}

func (s *Service) finish(ctx context.Context, orgID, id string, status domain.CampaignStatus, count int) {
	if err := s.repo.FinishSend(ctx, orgID, id, status, count); err != nil {
		logger.Error("persist campaign status failed",
			"campaign_id", id, "status", string(status), "error", err)
	}
}
