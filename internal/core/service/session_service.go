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
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// maxChainWalk bounds descendant revocation on token reuse.
	maxChainWalk = 1000
)

const forgotPasswordBody = "A password change request has been requested for your user. Use the password <b>%s</b> in your next application access."

type sessionService struct {
	users      ports.UserRepository
	tokens     ports.RefreshTokenRepository
	issuer     ports.TokenIssuer
	codec      ports.CredentialCodec
	secrets    ports.SecretGenerator
	mail       ports.EmailQueue
	refreshTTL time.Duration
	opts       options
	log        zerolog.Logger
}

// NewSessionService returns a SessionService implementation.
func NewSessionService(
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	issuer ports.TokenIssuer,
	codec ports.CredentialCodec,
	secrets ports.SecretGenerator,
	mail ports.EmailQueue,
	refreshTTL time.Duration,
	log zerolog.Logger,
	opts ...Option,
) ports.SessionService {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &sessionService{
		users:      users,
		tokens:     tokens,
		issuer:     issuer,
		codec:      codec,
		secrets:    secrets,
		mail:       mail,
		refreshTTL: refreshTTL,
		opts:       newOptions(opts),
		log:        log,
	}
}

// Authenticate checks the password of the user whose email equals login and
// opens a new session. A failed attempt writes nothing.
//
// Attempts are counted twice: per login and client address, and per login
// alone, so rotating addresses cannot reset the budget of one account.
func (s *sessionService) Authenticate(ctx context.Context, login, password, clientIP string) (*ports.Session, error) {
	throttleKeys := []string{"login:" + login + ":" + clientIP, "account:" + login}
	for _, key := range throttleKeys {
		if err := s.opts.allow(ctx, s.log, key); err != nil {
			return nil, err
		}
	}

	user, err := s.users.FindByEmail(ctx, login)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnknownLogin
	}
	if err != nil {
		return nil, internal(s.log, "authenticate", err)
	}

	ok, rehash, err := s.codec.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, internal(s.log, "authenticate", err)
	}
	if !ok {
		return nil, domain.ErrIncorrectPassword
	}

	now := s.opts.now()
	rt, err := s.newRefreshToken(user.ID, user.Identity(), clientIP, now)
	if err != nil {
		return nil, internal(s.log, "authenticate", err)
	}
	if err := s.tokens.Insert(ctx, rt); err != nil {
		return nil, internal(s.log, "authenticate", err)
	}

	access, err := s.issuer.IssueAccessToken(rt.Subject)
	if err != nil {
		return nil, internal(s.log, "authenticate", err)
	}

	if rehash {
		s.upgradeHash(ctx, user, password, now)
	}
	s.opts.reset(ctx, s.log, throttleKeys...)

	s.log.Info().Str("user_id", user.ID).Str("ip", clientIP).Msg("user authenticated")
	return &ports.Session{
		AccessToken:      access,
		RefreshToken:     rt.Token,
		RefreshExpiresAt: rt.ExpiresAt,
		Identity:         rt.Subject,
	}, nil
}

// RotateRefreshToken exchanges an active refresh token for a new session.
// The presented token is revoked with a compare-and-swap so that concurrent
// exchanges of the same token produce exactly one successor.
func (s *sessionService) RotateRefreshToken(ctx context.Context, presented, clientIP string) (*ports.Session, error) {
	now := s.opts.now()

	current, err := s.findActive(ctx, presented, clientIP, now)
	if err != nil {
		return nil, err
	}

	next, err := s.newRefreshToken(current.UserID, current.Subject, clientIP, now)
	if err != nil {
		return nil, internal(s.log, "rotate refresh token", err)
	}

	rev := domain.Revocation{At: now, ByIP: clientIP, ReplacedBy: next.Token}
	if err := s.tokens.Revoke(ctx, current.Token, rev); err != nil {
		if errors.Is(err, domain.ErrTokenNotActive) {
			s.log.Warn().Str("user_id", current.UserID).Str("ip", clientIP).Msg("concurrent refresh token rotation lost")
			return nil, domain.ErrTokenNotActive
		}
		return nil, internal(s.log, "rotate refresh token", err)
	}
	if err := s.tokens.Insert(ctx, next); err != nil {
		return nil, internal(s.log, "rotate refresh token", err)
	}

	access, err := s.issuer.IssueAccessToken(current.Subject)
	if err != nil {
		return nil, internal(s.log, "rotate refresh token", err)
	}

	return &ports.Session{
		AccessToken:      access,
		RefreshToken:     next.Token,
		RefreshExpiresAt: next.ExpiresAt,
		Identity:         current.Subject,
	}, nil
}

// RevokeRefreshToken terminally revokes an active token (logout).
func (s *sessionService) RevokeRefreshToken(ctx context.Context, presented, clientIP string) error {
	now := s.opts.now()

	current, err := s.findActive(ctx, presented, clientIP, now)
	if err != nil {
		return err
	}

	if err := s.tokens.Revoke(ctx, current.Token, domain.Revocation{At: now, ByIP: clientIP}); err != nil {
		if errors.Is(err, domain.ErrTokenNotActive) {
			return domain.ErrTokenNotActive
		}
		return internal(s.log, "revoke refresh token", err)
	}

	s.log.Info().Str("user_id", current.UserID).Str("ip", clientIP).Msg("refresh token revoked")
	return nil
}

// ForgotPassword replaces the password of the user owning email with a
// generated one and mails it. Unknown emails return ErrUserNotFound and
// change nothing.
func (s *sessionService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return internal(s.log, "forgot password", err)
	}

	plain, err := s.secrets.Password()
	if err != nil {
		return internal(s.log, "forgot password", err)
	}
	hash, err := s.codec.Hash(plain)
	if err != nil {
		return internal(s.log, "forgot password", err)
	}

	user.PasswordHash = hash
	user.ChangePassword = true
	user.UpdatedAt = s.opts.now()
	if err := s.users.Save(ctx, user); err != nil {
		return internal(s.log, "forgot password", err)
	}

	s.mail.Enqueue(domain.Email{
		To:      user.Email,
		Subject: user.Name,
		HTML:    fmt.Sprintf(forgotPasswordBody, plain),
	})

	s.log.Info().Str("user_id", user.ID).Msg("password reset issued")
	return nil
}

// findActive loads presented and rejects it unless active at now. With reuse
// detection on, a replayed rotated token also revokes its descendants.
func (s *sessionService) findActive(ctx context.Context, presented, clientIP string, now time.Time) (*domain.RefreshToken, error) {
	if presented == "" {
		return nil, domain.ErrTokenNotActive
	}

	rt, err := s.tokens.FindByToken(ctx, presented)
	if errors.Is(err, domain.ErrRefreshTokenNotFound) {
		return nil, domain.ErrTokenNotActive
	}
	if err != nil {
		return nil, internal(s.log, "find refresh token", err)
	}

	if !rt.IsActive(now) {
		if s.opts.reuseDetection && rt.IsRevoked() && rt.ReplacedByToken != "" {
			s.revokeDescendants(ctx, rt, clientIP, now)
		}
		return nil, domain.ErrTokenNotActive
	}
	return rt, nil
}

// revokeDescendants follows ReplacedByToken from rt and revokes every link
// that is still active.
func (s *sessionService) revokeDescendants(ctx context.Context, rt *domain.RefreshToken, clientIP string, now time.Time) {
	s.log.Warn().Str("user_id", rt.UserID).Str("ip", clientIP).Msg("revoked refresh token replayed, revoking descendants")

	next := rt.ReplacedByToken
	for i := 0; next != "" && i < maxChainWalk; i++ {
		child, err := s.tokens.FindByToken(ctx, next)
		if err != nil {
			if !errors.Is(err, domain.ErrRefreshTokenNotFound) {
				s.log.Error().Err(err).Str("user_id", rt.UserID).Msg("descendant lookup failed")
			}
			return
		}
		if child.IsActive(now) {
			err := s.tokens.Revoke(ctx, child.Token, domain.Revocation{At: now, ByIP: clientIP})
			if err != nil && !errors.Is(err, domain.ErrTokenNotActive) {
				s.log.Error().Err(err).Str("user_id", rt.UserID).Msg("descendant revocation failed")
				return
			}
		}
		next = child.ReplacedByToken
	}
}

func (s *sessionService) newRefreshToken(userID string, subject domain.Identity, clientIP string, now time.Time) (*domain.RefreshToken, error) {
	token, err := s.secrets.RefreshToken()
	if err != nil {
		return nil, err
	}
	return &domain.RefreshToken{
		Token:       token,
		UserID:      userID,
		Subject:     subject,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedAt:   now,
		CreatedByIP: clientIP,
	}, nil
}

// upgradeHash re-encodes a verified password with the current codec
// parameters. Failures are logged only.
func (s *sessionService) upgradeHash(ctx context.Context, user *domain.User, password string, now time.Time) {
	hash, err := s.codec.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("password rehash failed")
		return
	}
	user.PasswordHash = hash
	user.UpdatedAt = now
	if err := s.users.Save(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("password rehash not saved")
	}
}
