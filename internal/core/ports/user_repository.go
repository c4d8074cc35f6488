package ports

import (
	"context"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// UserRepository defines persistence of user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
	Count(ctx context.Context, filter domain.UserFilter) (int64, error)
}
