// Package mail provides the transports behind the email outbox.
package mail

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/core/ports"
)

const (
	ProviderLog      = "log"
	ProviderSendGrid = "sendgrid"
	ProviderMailgun  = "mailgun"
)

var ErrInvalidConfig = errors.New("invalid mail configuration")

// Config selects and configures a transport.
type Config struct {
	Provider       string
	From           string
	FromName       string
	SendGridAPIKey string
	MailgunDomain  string
	MailgunAPIKey  string
}

// NewSender returns the transport named by cfg.Provider.
func NewSender(cfg Config, log zerolog.Logger) (ports.EmailSender, error) {
	switch cfg.Provider {
	case "", ProviderLog:
		return NewLogSender(log), nil
	case ProviderSendGrid:
		if cfg.SendGridAPIKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: sendgrid requires an api key and a from address", ErrInvalidConfig)
		}
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName), nil
	case ProviderMailgun:
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: mailgun requires a domain, an api key and a from address", ErrInvalidConfig)
		}
		return NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
