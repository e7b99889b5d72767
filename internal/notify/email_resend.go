package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client    *resend.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// ResendConfig holds configuration for Resend.
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	BaseURL   string // Optional API base override, used by tests
}

// NewResendSender creates a Resend email sender.
func NewResendSender(cfg ResendConfig, logger *logging.Logger) (*ResendSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: resend API key required", ErrInvalidConfig)
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: resend from address required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: resend base url: %v", ErrInvalidConfig, err)
		}
		client.BaseURL = base
	}
	return &ResendSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}, nil
}

// Send sends an email via Resend.
func (s *ResendSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: resend client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    formatFrom(s.fromName, s.fromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Body,
		ReplyTo: msg.ReplyTo,
	}
	if msg.Tag != "" {
		req.Tags = []resend.Tag{{Name: "category", Value: msg.Tag}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		s.logger.Error("resend send failed", "error", err, "to", logging.MaskEmail(msg.To))
		return fmt.Errorf("%w: resend: %w", ErrSendFailed, err)
	}

	s.logger.Info("email sent via resend", "to", logging.MaskEmail(msg.To), "subject", msg.Subject, "email_id", sent.Id)
	return nil
}

var _ EmailSender = (*ResendSender)(nil)
