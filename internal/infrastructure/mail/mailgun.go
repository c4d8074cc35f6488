package mail

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// MailgunSender delivers through the Mailgun messages API.
type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunSender(domainName, apiKey, from string) *MailgunSender {
	return &MailgunSender{mg: mailgun.NewMailgun(domainName, apiKey), from: from}
}

func (s *MailgunSender) Send(ctx context.Context, email domain.Email) error {
	message := s.mg.NewMessage(s.from, email.Subject, plainText(email))
	if err := message.AddRecipient(email.To); err != nil {
		return fmt.Errorf("mailgun recipient: %w", err)
	}
	if email.HTML != "" {
		message.SetHtml(email.HTML)
	}

	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
