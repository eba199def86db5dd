package config

import "time"

// Mail providers.
const (
	ProviderResend  = "resend"
	ProviderSES     = "ses"
	ProviderConsole = "console"
)

// NotifxConfig configures the outbound mail provider.
type NotifxConfig struct {
	Provider     string        `env:"MAIL_PROVIDER" envDefault:"resend"`
	ResendAPIKey string        `env:"RESEND_API_KEY"`
	ResendURL    string        `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	Timeout      time.Duration `env:"MAIL_PROVIDER_TIMEOUT" envDefault:"30s"`
	AWSRegion    string        `env:"AWS_REGION" envDefault:"us-east-1"`
}
