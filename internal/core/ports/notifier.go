package ports

import (
	"context"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// EmailQueue accepts fire-and-forget deliveries. Callers never observe the
// delivery result.
type EmailQueue interface {
	Enqueue(email domain.Email)
}

// EmailSender delivers a single message through a transport.
type EmailSender interface {
	Send(ctx context.Context, email domain.Email) error
}
