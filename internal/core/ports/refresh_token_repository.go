package ports

import (
	"context"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// RefreshTokenRepository persists rotation chains.
//
// Revoke must be a compare-and-swap: it succeeds only while the stored token
// is still unrevoked and unexpired at rev.At, and returns
// domain.ErrTokenNotActive otherwise. RevokeAllForUser applies the same
// condition to every token of a user and reports how many it revoked.
type RefreshTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Insert(ctx context.Context, token *domain.RefreshToken) error
	Revoke(ctx context.Context, token string, rev domain.Revocation) error
	RevokeAllForUser(ctx context.Context, userID string, rev domain.Revocation) (int64, error)
}
