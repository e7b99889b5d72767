package config

import (
	"errors"
	"fmt"
	"strings"
	_ "time/tzdata" // BUSINESS_TIMEZONE must resolve on minimal images

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Email provider identifiers accepted by EMAIL_PROVIDER.
const (
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderPostmark = "postmark"
	ProviderStub     = "stub"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds application configuration. It is built once at startup and
// passed by pointer to every component; nothing mutates it afterwards.
type Config struct {
	Port     string `env:"PORT" envDefault:"3000" validate:"required,numeric"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error"`

	// Email provider selection and credentials
	EmailProvider        string `env:"EMAIL_PROVIDER" envDefault:"resend" validate:"oneof=resend sendgrid ses postmark stub"`
	ResendAPIKey         string `env:"RESEND_API_KEY"`
	SendGridAPIKey       string `env:"SENDGRID_API_KEY"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	AWSRegion            string `env:"AWS_REGION" envDefault:"us-west-2"`
	AWSAccessKeyID       string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSEndpointOverride  string `env:"AWS_ENDPOINT_OVERRIDE" validate:"omitempty,url"`
	SESConfigurationSet  string `env:"SES_CONFIGURATION_SET"`

	// Addresses
	BusinessEmail string `env:"BUSINESS_EMAIL" envDefault:"leads@tomplumbs.com" validate:"required,email"`
	FromEmail     string `env:"NOTIFICATION_FROM_EMAIL" envDefault:"noreply@tomplumbs.com" validate:"required,email"`
	FromName      string `env:"NOTIFICATION_FROM_NAME" envDefault:"Tom Plumb Plumbing"`

	// Business profile rendered into emails and error messages
	BusinessName     string `env:"BUSINESS_NAME" envDefault:"Tom Plumb Plumbing"`
	BusinessPhone    string `env:"BUSINESS_PHONE" envDefault:"(760) 846-0414"`
	BusinessLicense  string `env:"BUSINESS_LICENSE" envDefault:"955168"`
	BusinessWebsite  string `env:"BUSINESS_WEBSITE" envDefault:"https://tomplumbs.com" validate:"omitempty,url"`
	BusinessTimezone string `env:"BUSINESS_TIMEZONE" envDefault:"America/Los_Angeles" validate:"timezone"`

	// HTTP surface
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	StaticDir           string   `env:"STATIC_DIR"`
	RedisAddr           string   `env:"REDIS_ADDR"`
	RedisPassword       string   `env:"REDIS_PASSWORD"`
	SubmitRatePerMinute float64  `env:"SUBMIT_RATE_PER_MINUTE" envDefault:"10" validate:"gte=0"`
	SubmitRateBurst     int      `env:"SUBMIT_RATE_BURST" envDefault:"5" validate:"gte=0"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// friends. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from a local .env file (if present) and the
// process environment, then validates it.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	cfg.EmailProvider = strings.ToLower(strings.TrimSpace(cfg.EmailProvider))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// IsProduction reports whether raw error detail must be withheld from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// EffectiveLogLevel returns LOG_LEVEL when set, otherwise debug in
// development and info everywhere else.
func (c *Config) EffectiveLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	if strings.EqualFold(c.Env, "development") {
		return "debug"
	}
	return "info"
}

// EmailConfigured reports whether the selected provider has the credential it
// needs. SES relies on the AWS default credential chain, so selecting it is enough.
func (c *Config) EmailConfigured() bool {
	switch c.EmailProvider {
	case ProviderResend:
		return c.ResendAPIKey != ""
	case ProviderSendGrid:
		return c.SendGridAPIKey != ""
	case ProviderPostmark:
		return c.PostmarkServerToken != ""
	case ProviderSES, ProviderStub:
		return true
	default:
		return false
	}
}
