package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

type userAdminService struct {
	users  ports.UserRepository
	tokens ports.RefreshTokenRepository
	codec  ports.CredentialCodec
	mail   ports.EmailQueue
	roles  domain.RoleCatalog
	opts   options
	log    zerolog.Logger
}

// NewUserAdminService returns a UserAdminService. Only roles in the catalog
// can be assigned.
func NewUserAdminService(
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	codec ports.CredentialCodec,
	mail ports.EmailQueue,
	roles domain.RoleCatalog,
	log zerolog.Logger,
	opts ...Option,
) ports.UserAdminService {
	return &userAdminService{
		users:  users,
		tokens: tokens,
		codec:  codec,
		mail:   mail,
		roles:  roles,
		opts:   newOptions(opts),
		log:    log,
	}
}

func (s *userAdminService) List(ctx context.Context, filter domain.UserFilter) (*domain.UserPage, error) {
	filter = filter.Normalize()

	users, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, internal(s.log, "list users", err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, internal(s.log, "list users", err)
	}
	return domain.NewUserPage(users, total, filter.PerPage), nil
}

func (s *userAdminService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, internal(s.log, "get user", err)
	}
	return user, nil
}

// Add creates an account with the given role and password and mails the
// new user.
func (s *userAdminService) Add(ctx context.Context, in ports.UserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || in.Password == "" || !validEmail(email) {
		return nil, domain.ErrInvalidInput
	}
	role, ok := s.roles.Find(in.Role)
	if !ok {
		return nil, domain.ErrRoleNotFound
	}

	hash, err := s.codec.Hash(in.Password)
	if err != nil {
		return nil, internal(s.log, "add user", err)
	}

	now := s.opts.now()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil, domain.ErrUserExists
	}
	if err != nil {
		return nil, internal(s.log, "add user", err)
	}

	s.mail.Enqueue(domain.Email{To: created.Email, Subject: created.Name, HTML: welcomeBody, Text: welcomeBody})

	s.log.Info().Str("user_id", created.ID).Str("role", role.Name).Msg("user added")
	return created, nil
}

// Update replaces name, e-mail and role, and the password when one is given.
func (s *userAdminService) Update(ctx context.Context, id string, in ports.UserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || !validEmail(email) {
		return nil, domain.ErrInvalidInput
	}

	owner, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != id:
		return nil, domain.ErrEmailInUse
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, internal(s.log, "update user", err)
	}

	role, ok := s.roles.Find(in.Role)
	if !ok {
		return nil, domain.ErrRoleNotFound
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Password != "" {
		hash, err := s.codec.Hash(in.Password)
		if err != nil {
			return nil, internal(s.log, "update user", err)
		}
		user.PasswordHash = hash
	}
	user.Name = name
	user.Email = email
	user.Role = role
	user.UpdatedAt = s.opts.now()
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrEmailInUse
		}
		return nil, internal(s.log, "update user", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user updated")
	return user, nil
}

// UpdateRole assigns a catalog role. Sessions opened before the change keep
// the role they were issued with until they expire or are revoked.
func (s *userAdminService) UpdateRole(ctx context.Context, id, ref string) (*domain.User, error) {
	role, ok := s.roles.Find(ref)
	if !ok {
		return nil, domain.ErrRoleNotFound
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.UpdatedAt = s.opts.now()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, internal(s.log, "update user role", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", role.Name).Msg("user role updated")
	return user, nil
}

// Delete removes the user and revokes every refresh token they still hold.
// Deleting an unknown user succeeds.
func (s *userAdminService) Delete(ctx context.Context, id, byIP string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return internal(s.log, "delete user", err)
	}

	revoked, err := s.tokens.RevokeAllForUser(ctx, id, domain.Revocation{At: s.opts.now(), ByIP: byIP})
	if err != nil {
		return internal(s.log, "delete user", err)
	}

	s.log.Info().Str("user_id", id).Int64("sessions_revoked", revoked).Msg("user deleted")
	return nil
}
