package mainconfig

import (
	"context"
	"fmt"

	appconfig "github.com/tomplumbs/landing-page/internal/config"
	"github.com/tomplumbs/landing-page/internal/notify"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

// NewEmailSender builds the sender selected by EMAIL_PROVIDER. It returns a
// nil sender (and no error) when the provider has no credentials, which puts
// the dispatcher in its log-only mode.
func NewEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.EmailConfigured() {
		logger.Warn("email provider credentials missing; lead emails disabled", "provider", cfg.EmailProvider)
		return nil, nil
	}

	switch cfg.EmailProvider {
	case appconfig.ProviderResend:
		sender, err := notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case appconfig.ProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger)
		if sender == nil {
			return nil, nil
		}
		return sender, nil
	case appconfig.ProviderPostmark:
		sender := notify.NewPostmarkSender(notify.PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
			FromEmail:    cfg.FromEmail,
			FromName:     cfg.FromName,
		}, logger)
		if sender == nil {
			return nil, nil
		}
		return sender, nil
	case appconfig.ProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sender, err := notify.NewSESSender(NewSESClient(awsCfg, cfg.AWSEndpointOverride), notify.SESConfig{
			FromEmail:        cfg.FromEmail,
			FromName:         cfg.FromName,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case appconfig.ProviderStub:
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("mainconfig: unknown email provider %q", cfg.EmailProvider)
	}
}
