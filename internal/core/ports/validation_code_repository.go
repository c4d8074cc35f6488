package ports

import (
	"context"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// ValidationCodeRepository persists one-time verification codes.
type ValidationCodeRepository interface {
	Insert(ctx context.Context, code *domain.ValidationCode) error
	FindByUser(ctx context.Context, userID string) ([]*domain.ValidationCode, error)
}
