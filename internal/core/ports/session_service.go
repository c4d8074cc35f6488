package ports

import (
	"context"
	"time"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// Session is the pair of credentials handed to a client.
type Session struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	Identity         domain.Identity
}

type SessionService interface {
	Authenticate(ctx context.Context, login, password, clientIP string) (*Session, error)
	RotateRefreshToken(ctx context.Context, presented, clientIP string) (*Session, error)
	RevokeRefreshToken(ctx context.Context, presented, clientIP string) error
	ForgotPassword(ctx context.Context, email string) error
}
