package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridSender(apiKey, from, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, from),
	}
}

func (s *SendGridSender) Send(ctx context.Context, email domain.Email) error {
	to := sgmail.NewEmail("", email.To)
	message := sgmail.NewSingleEmail(s.from, email.Subject, to, plainText(email), email.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid send: unexpected status %d", response.StatusCode)
	}
	return nil
}
