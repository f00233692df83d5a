// Package ses implements the delivery transport on AWS SES v2.
package ses

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/medlemsys/campaign-engine/internal/config"
	"github.com/medlemsys/campaign-engine/internal/domain"
)

// Sender sends campaign email through the SES v2 API.
type Sender struct {
	client  sendEmailAPI
	timeout time.Duration
}

// sendEmailAPI is the slice of the SES v2 client Send uses.
type sendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NewSender creates an SES transport from static credentials. The AWS
// configuration is read-only process-wide state, initialized once here.
func NewSender(ctx context.Context, cfg appconfig.SESConfig) (*Sender, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Sender{client: sesv2.NewFromConfig(awsCfg), timeout: cfg.Timeout()}, nil
}

// Send delivers one message. A rejected message comes back as a
// non-success result, not a Go error, so the caller's failure
// accounting stays uniform.
func (s *Sender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	from := msg.FromEmail
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML)},
					Text: &types.Content{Data: aws.String(msg.Text)},
				},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return &domain.SendResult{
			Success: false,
			SentAt:  time.Now().UTC(),
			Error:   err.Error(),
		}, nil
	}

	res := &domain.SendResult{
		Success: true,
		SentAt:  time.Now().UTC(),
	}
	if out.MessageId != nil {
		res.MessageID = *out.MessageId
	}
	return res, nil
}
