package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

const (
	DefaultCodeTTL = 10 * time.Minute
	codeLength     = 6
)

const validationCodeBody = "A new validation code was requested. Use the code <b>%s</b> to complete validation."

type verificationService struct {
	users   ports.UserRepository
	codes   ports.ValidationCodeRepository
	codec   ports.CredentialCodec
	secrets ports.SecretGenerator
	mail    ports.EmailQueue
	codeTTL time.Duration
	opts    options
	log     zerolog.Logger
}

// NewVerificationService returns a VerificationService implementation.
func NewVerificationService(
	users ports.UserRepository,
	codes ports.ValidationCodeRepository,
	codec ports.CredentialCodec,
	secrets ports.SecretGenerator,
	mail ports.EmailQueue,
	codeTTL time.Duration,
	log zerolog.Logger,
	opts ...Option,
) ports.VerificationService {
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &verificationService{
		users:   users,
		codes:   codes,
		codec:   codec,
		secrets: secrets,
		mail:    mail,
		codeTTL: codeTTL,
		opts:    newOptions(opts),
		log:     log,
	}
}

// SendCode issues a new code for the user, resets its validated flag and
// mails the code. Earlier codes are left in place; they simply stop being
// the newest.
func (s *verificationService) SendCode(ctx context.Context, userID string) error {
	if err := s.opts.allow(ctx, s.log, "code:"+userID); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return internal(s.log, "send code", err)
	}

	plain, err := s.secrets.NumericCode(codeLength)
	if err != nil {
		return internal(s.log, "send code", err)
	}
	hash, err := s.codec.Hash(plain)
	if err != nil {
		return internal(s.log, "send code", err)
	}

	now := s.opts.now()
	code := &domain.ValidationCode{
		UserID:    user.ID,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.codeTTL),
		Active:    true,
		CreatedAt: now,
	}
	if err := s.codes.Insert(ctx, code); err != nil {
		return internal(s.log, "send code", err)
	}

	user.Validated = false
	user.UpdatedAt = now
	if err := s.users.Save(ctx, user); err != nil {
		return internal(s.log, "send code", err)
	}

	s.mail.Enqueue(domain.Email{
		To:      user.Email,
		Subject: user.Name,
		HTML:    fmt.Sprintf(validationCodeBody, plain),
	})

	s.log.Info().Str("user_id", user.ID).Msg("validation code issued")
	return nil
}

// ValidateCode marks the user validated when code matches the newest
// unexpired code issued to them. Guesses are throttled per user.
func (s *verificationService) ValidateCode(ctx context.Context, userID, code string) error {
	throttleKey := "validate:" + userID
	if err := s.opts.allow(ctx, s.log, throttleKey); err != nil {
		return err
	}

	codes, err := s.codes.FindByUser(ctx, userID)
	if err != nil {
		return internal(s.log, "validate code", err)
	}

	now := s.opts.now()
	newest := domain.Newest(codes)
	if newest == nil || newest.IsExpired(now) {
		return domain.ErrInvalidOrExpiredCode
	}

	ok, _, err := s.codec.Verify(code, newest.CodeHash)
	if err != nil {
		return internal(s.log, "validate code", err)
	}
	if !ok {
		return domain.ErrInvalidOrExpiredCode
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return internal(s.log, "validate code", err)
	}

	user.Validated = true
	user.UpdatedAt = now
	if err := s.users.Save(ctx, user); err != nil {
		return internal(s.log, "validate code", err)
	}
	s.opts.reset(ctx, s.log, throttleKey)

	s.log.Info().Str("user_id", user.ID).Msg("user validated")
	return nil
}
