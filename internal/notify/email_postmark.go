package notify

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

// PostmarkSender sends emails via Postmark's transactional API.
type PostmarkSender struct {
	client    *postmark.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// PostmarkConfig holds configuration for Postmark.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	FromEmail    string
	FromName     string
	BaseURL      string // Optional API base override, used by tests
}

// NewPostmarkSender creates a Postmark sender. It returns nil when no server
// token is configured.
func NewPostmarkSender(cfg PostmarkConfig, logger *logging.Logger) *PostmarkSender {
	if cfg.ServerToken == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	return &PostmarkSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via Postmark. Link tracking is limited to HTML parts.
func (s *PostmarkSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: postmark client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       formatFrom(s.fromName, s.fromEmail),
		To:         msg.To,
		ReplyTo:    msg.ReplyTo,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TextBody:   msg.Body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		s.logger.Error("postmark send failed", "error", err, "to", logging.MaskEmail(msg.To))
		return fmt.Errorf("%w: postmark: %w", ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		s.logger.Error("postmark rejected email", "code", resp.ErrorCode, "message", resp.Message, "to", logging.MaskEmail(msg.To))
		return fmt.Errorf("%w: postmark error %d: %s", ErrSendFailed, resp.ErrorCode, resp.Message)
	}

	s.logger.Info("email sent via postmark", "to", logging.MaskEmail(msg.To), "subject", msg.Subject, "message_id", resp.MessageID)
	return nil
}

var _ EmailSender = (*PostmarkSender)(nil)
