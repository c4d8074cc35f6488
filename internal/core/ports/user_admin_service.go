package ports

import (
	"context"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// UserInput carries an administrator's create or update request. On update
// an empty Password keeps the current one.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserAdminService manages accounts on behalf of an administrator.
type UserAdminService interface {
	List(ctx context.Context, filter domain.UserFilter) (*domain.UserPage, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Add(ctx context.Context, in UserInput) (*domain.User, error)
	Update(ctx context.Context, id string, in UserInput) (*domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	Delete(ctx context.Context, id, byIP string) error
}
