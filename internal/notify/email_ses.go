package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

const sesCharset = "UTF-8"

// SESAPI is the subset of the SES v2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails via AWS SES.
type SESSender struct {
	client    SESAPI
	fromEmail string
	fromName  string
	configSet string
	logger    *logging.Logger
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	FromEmail        string
	FromName         string
	ConfigurationSet string // Optional, for SES event publishing
}

// NewSESSender creates an SES email sender around an existing client.
func NewSESSender(client SESAPI, cfg SESConfig, logger *logging.Logger) (*SESSender, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: ses client required", ErrInvalidConfig)
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: ses from address required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SESSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		configSet: cfg.ConfigurationSet,
		logger:    logger,
	}, nil
}

// Send sends an email via AWS SES.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(formatFrom(s.fromName, s.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: sesText(msg.Subject),
				Body:    sesBody(msg),
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if msg.Tag != "" {
		input.EmailTags = []types.MessageTag{{Name: aws.String("category"), Value: aws.String(msg.Tag)}}
	}
	if s.configSet != "" {
		input.ConfigurationSetName = aws.String(s.configSet)
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("ses send failed", "error", err, "to", logging.MaskEmail(msg.To))
		return fmt.Errorf("%w: ses: %w", ErrSendFailed, err)
	}

	s.logger.Info("email sent via ses", "to", logging.MaskEmail(msg.To), "subject", msg.Subject, "message_id", aws.ToString(out.MessageId))
	return nil
}

func sesText(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String(sesCharset)}
}

// sesBody includes only the parts that carry content.
func sesBody(msg EmailMessage) *types.Body {
	body := &types.Body{}
	if msg.Body != "" {
		body.Text = sesText(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = sesText(msg.HTML)
	}
	return body
}

var _ EmailSender = (*SESSender)(nil)
