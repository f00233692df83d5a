package ses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlemsys/campaign-engine/internal/domain"
)

type fakeSESClient struct {
	input       *sesv2.SendEmailInput
	hadDeadline bool
	err         error
}

func (f *fakeSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	_, f.hadDeadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendBuildsMessage(t *testing.T) {
	client := &fakeSESClient{}
	s := &Sender{client: client}

	res, err := s.Send(context.Background(), &domain.EmailMessage{
		To:        "anne@klubb.no",
		FromName:  "Sportsklubben",
		FromEmail: "post@klubb.no",
		ReplyTo:   "styret@klubb.no",
		Subject:   "Sesongstart",
		HTML:      "<p>hei</p>",
		Text:      "hei",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "msg-1", res.MessageID)

	require.NotNil(t, client.input)
	assert.Equal(t, "Sportsklubben <post@klubb.no>", *client.input.FromEmailAddress)
	assert.Equal(t, []string{"anne@klubb.no"}, client.input.Destination.ToAddresses)
	assert.Equal(t, []string{"styret@klubb.no"}, client.input.ReplyToAddresses)
}

func TestSendAppliesConfiguredTimeout(t *testing.T) {
	client := &fakeSESClient{}
	s := &Sender{client: client, timeout: 30 * time.Second}

	_, err := s.Send(context.Background(), &domain.EmailMessage{To: "a@klubb.no"})
	require.NoError(t, err)
	assert.True(t, client.hadDeadline)
}

func TestSendWithoutTimeoutKeepsContext(t *testing.T) {
	client := &fakeSESClient{}
	s := &Sender{client: client}

	_, err := s.Send(context.Background(), &domain.EmailMessage{To: "a@klubb.no"})
	require.NoError(t, err)
	assert.False(t, client.hadDeadline)
}

func TestSendAPIErrorBecomesFailedResult(t *testing.T) {
	client := &fakeSESClient{err: errors.New("MessageRejected: address suppressed")}
	s := &Sender{client: client}

	res, err := s.Send(context.Background(), &domain.EmailMessage{To: "a@klubb.no"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "MessageRejected")
}
