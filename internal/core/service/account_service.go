package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

const welcomeBody = "User successfully added."

type accountService struct {
	users     ports.UserRepository
	codec     ports.CredentialCodec
	mail      ports.EmailQueue
	basicRole domain.Role
	opts      options
	log       zerolog.Logger
}

// NewAccountService returns an AccountService. Self-registered users receive
// basicRole.
func NewAccountService(
	users ports.UserRepository,
	codec ports.CredentialCodec,
	mail ports.EmailQueue,
	basicRole domain.Role,
	log zerolog.Logger,
	opts ...Option,
) ports.AccountService {
	if basicRole.Name == "" {
		basicRole.Name = domain.RoleBasic
	}
	return &accountService{
		users:     users,
		codec:     codec,
		mail:      mail,
		basicRole: basicRole,
		opts:      newOptions(opts),
		log:       log,
	}
}

func (s *accountService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || in.Password == "" || !validEmail(email) {
		return nil, domain.ErrInvalidInput
	}

	hash, err := s.codec.Hash(in.Password)
	if err != nil {
		return nil, internal(s.log, "register", err)
	}

	now := s.opts.now()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         s.basicRole,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil, domain.ErrUserExists
	}
	if err != nil {
		return nil, internal(s.log, "register", err)
	}

	s.mail.Enqueue(domain.Email{To: created.Email, Subject: created.Name, HTML: welcomeBody, Text: welcomeBody})

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *accountService) GetLoggedInUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, internal(s.log, "get logged in user", err)
	}
	return user, nil
}

func (s *accountService) UpdateLoggedInUser(ctx context.Context, userID, name, email string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || !validEmail(email) {
		return nil, domain.ErrInvalidInput
	}

	owner, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != userID:
		return nil, domain.ErrEmailInUse
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, internal(s.log, "update logged in user", err)
	}

	user, err := s.GetLoggedInUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Email = email
	user.UpdatedAt = s.opts.now()
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrEmailInUse
		}
		return nil, internal(s.log, "update logged in user", err)
	}
	return user, nil
}

// RedefinePassword replaces the password after checking the current one and
// clears the change-password flag set by a reset.
func (s *accountService) RedefinePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return domain.ErrInvalidInput
	}

	user, err := s.GetLoggedInUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, _, err := s.codec.Verify(current, user.PasswordHash)
	if err != nil {
		return internal(s.log, "redefine password", err)
	}
	if !ok {
		return domain.ErrIncorrectPassword
	}

	hash, err := s.codec.Hash(next)
	if err != nil {
		return internal(s.log, "redefine password", err)
	}

	user.PasswordHash = hash
	user.ChangePassword = false
	user.UpdatedAt = s.opts.now()
	if err := s.users.Save(ctx, user); err != nil {
		return internal(s.log, "redefine password", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password redefined")
	return nil
}

var validate = validator.New()

func validEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
