package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// LogSender writes emails to the logger instead of delivering them. Meant for
// local development only: bodies may contain generated secrets.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, email domain.Email) error {
	s.log.Info().
		Str("to", email.To).
		Str("subject", email.Subject).
		Str("html", email.HTML).
		Msg("email")
	return nil
}
