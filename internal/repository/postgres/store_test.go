package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/service/delivery"
	"github.com/medlemsys/campaign-engine/internal/token"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestBeginSendTransitions(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(string(domain.CampaignSending), sqlmock.AnyArg(), "c1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.BeginSend(context.Background(), "org-1", "c1", time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginSendGuardRejectsNonSendable(t *testing.T) {
	store, mock := newMock(t)

	// CAS matches no rows; the campaign exists but is already sent.
	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("c1", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := store.BeginSend(context.Background(), "org-1", "c1", time.Now())
	assert.ErrorIs(t, err, delivery.ErrAlreadySending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginSendUnknownCampaign(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := store.BeginSend(context.Background(), "org-1", "missing", time.Now())
	assert.ErrorIs(t, err, delivery.ErrNotFound)
}

func TestGetCampaignScopedByOrg(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs("c1", "org-other").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetCampaign(context.Background(), "org-other", "c1")
	assert.ErrorIs(t, err, delivery.ErrNotFound)
}

func TestGetCampaignParsesFilter(t *testing.T) {
	store, mock := newMock(t)

	cols := []string{"id", "organization_id", "subject", "body", "reply_to",
		"filter", "status", "recipient_count", "open_count", "click_count",
		"sent_at", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs("c1", "org-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"c1", "org-1", "Nyhetsbrev", "<p>hei</p>", "",
			[]byte(`{"statuses":["active"],"categories":["senior"]}`),
			"draft", 0, 0, 0, nil, time.Now()))

	c, err := store.GetCampaign(context.Background(), "org-1", "c1")
	require.NoError(t, err)
	require.NotNil(t, c.Filter)
	assert.Equal(t, []domain.MemberStatus{domain.MemberActive}, c.Filter.Statuses)
	assert.Equal(t, []string{"senior"}, c.Filter.Categories)
	assert.Nil(t, c.SentAt)
}

func TestFinishSendWritesCountOnce(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(string(domain.CampaignSent), 4, "c1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.FinishSend(context.Background(), "org-1", "c1", domain.CampaignSent, 4)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecipient(t *testing.T) {
	store, mock := newMock(t)

	r := &domain.Recipient{
		ID: "r1", CampaignID: "c1", MemberID: "m1",
		Email: "a@klubb.no", Token: token.New(), Status: domain.RecipientQueued,
	}
	mock.ExpectExec("INSERT INTO campaign_recipients").
		WithArgs(r.ID, r.CampaignID, r.MemberID, r.Email, r.Token, string(r.Status)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.CreateRecipient(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveToken(t *testing.T) {
	store, mock := newMock(t)

	tok := token.New()
	mock.ExpectQuery("SELECT (.+) FROM campaign_recipients").
		WithArgs(tok).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "member_id", "organization_id"}).
			AddRow("r1", "c1", "m1", "org-1"))

	res, err := store.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "r1", res.RecipientID)
	assert.Equal(t, "c1", res.CampaignID)
	assert.Equal(t, "m1", res.MemberID)
	assert.Equal(t, "org-1", res.OrganizationID)
}

func TestResolveUnknownToken(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM campaign_recipients").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Resolve(context.Background(), token.New())
	assert.True(t, errors.Is(err, token.ErrNotFound))
}

func TestListMembersAppliesBothClauses(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "email", "first_name", "status", "category"}).
			AddRow("m1", "org-1", "a@klubb.no", "Anne", "active", "senior"))

	f := &domain.AudienceFilter{
		Statuses:   []domain.MemberStatus{domain.MemberActive},
		Categories: []string{"senior"},
	}
	members, err := store.ListMembers(context.Background(), "org-1", f)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "m1", members[0].ID)
}

func TestRecordOpenEventBumpsCounter(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO tracking_events").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE campaigns SET open_count").
		WithArgs("c1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordEvent(context.Background(), &domain.TrackingEvent{
		OrganizationID: "org-1", CampaignID: "c1", RecipientID: "r1",
		MemberID: "m1", EventType: domain.EventOpen,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordClickEventBumpsCounter(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO tracking_events").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE campaigns SET click_count").
		WithArgs("c1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordEvent(context.Background(), &domain.TrackingEvent{
		OrganizationID: "org-1", CampaignID: "c1", RecipientID: "r1",
		MemberID: "m1", EventType: domain.EventClick, LinkURL: "https://example.com",
	})
	assert.NoError(t, err)
}
