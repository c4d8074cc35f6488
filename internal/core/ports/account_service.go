package ports

import (
	"context"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// RegistrationInput carries a self-registration request.
type RegistrationInput struct {
	Name     string
	Email    string
	Password string
}

// AccountService manages the caller's own account.
type AccountService interface {
	Register(ctx context.Context, in RegistrationInput) (*domain.User, error)
	GetLoggedInUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateLoggedInUser(ctx context.Context, userID, name, email string) (*domain.User, error)
	RedefinePassword(ctx context.Context, userID, current, next string) error
}
