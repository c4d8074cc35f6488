// @title           Identity API
// @version         1.0
// @description     Session and verification-credential lifecycle for user accounts.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/api"
	"github.com/cecimongo/identity-api/internal/api/handler"
	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/service"
	"github.com/cecimongo/identity-api/internal/infrastructure/db/mongo"
	"github.com/cecimongo/identity-api/internal/infrastructure/db/redis"
	"github.com/cecimongo/identity-api/internal/infrastructure/mail"
	"github.com/cecimongo/identity-api/internal/infrastructure/queue"
	"github.com/cecimongo/identity-api/internal/infrastructure/security"
	"github.com/cecimongo/identity-api/internal/pkg/config"
	"github.com/cecimongo/identity-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("identity api stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	issuer := security.NewJWTIssuer(cfg.JWTSecret, cfg.Session.AccessTTL, nil)
	if err := issuer.CheckSecret(); err != nil {
		return err
	}

	params := security.DefaultArgon2Params()
	params.Memory = cfg.Argon2.MemoryKB
	params.Time = cfg.Argon2.Time
	params.Parallelism = cfg.Argon2.Threads
	codec, err := security.NewArgon2Codec(params)
	if err != nil {
		return err
	}
	secrets := security.NewGenerator(security.DefaultPasswordPolicy())

	store, err := mongo.Connect(ctx, mongo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo close")
		}
	}()
	db := store.DB
	if err := mongo.EnsureIndexes(ctx, db, cfg.Mongo.TTLCleanup); err != nil {
		return err
	}

	var opts []service.Option
	var rdb goredis.UniversalClient
	if cfg.Redis.Enabled {
		rc, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()
		rdb = rc
		opts = append(opts, service.WithThrottle(redis.NewThrottle(rc, map[string]redis.Limit{
			"login":    {Max: cfg.Redis.LoginAttempts, Window: cfg.Redis.LoginWindow},
			"account":  {Max: cfg.Redis.AccountAttempts, Window: cfg.Redis.LoginWindow},
			"code":     {Max: cfg.Redis.CodeSends, Window: cfg.Redis.CodeWindow},
			"validate": {Max: cfg.Redis.CodeGuesses, Window: cfg.Redis.CodeGuessWindow},
		})))
	} else {
		log.Warn().Msg("redis disabled, login and code throttling is off")
	}

	sender, err := mail.NewSender(mail.Config{
		Provider:       cfg.Mail.Provider,
		From:           cfg.Mail.From,
		FromName:       cfg.Mail.FromName,
		SendGridAPIKey: cfg.Mail.SendGridAPIKey,
		MailgunDomain:  cfg.Mail.MailgunDomain,
		MailgunAPIKey:  cfg.Mail.MailgunAPIKey,
	}, logger.Component(log, "mail"))
	if err != nil {
		return err
	}
	outbox := queue.NewDispatcher(cfg.Mail.Workers, sender, logger.Component(log, "outbox"))
	outbox.Start(ctx)
	// Runs after e.Shutdown so mail queued by in-flight requests still goes out.
	defer func() {
		octx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := outbox.Stop(octx); err != nil {
			log.Error().Err(err).Msg("outbox stop")
		}
	}()

	users := mongo.NewUserRepository(db)
	tokens := mongo.NewRefreshTokenRepository(db)
	codes := mongo.NewValidationCodeRepository(db)

	sessionOpts := append(slices.Clone(opts), service.WithReuseDetection(cfg.Session.ReuseDetection))
	sessions := service.NewSessionService(users, tokens, issuer, codec, secrets, outbox,
		cfg.Session.RefreshTTL, logger.Component(log, "session"), sessionOpts...)
	verification := service.NewVerificationService(users, codes, codec, secrets, outbox,
		cfg.Session.CodeTTL, logger.Component(log, "verification"), opts...)
	accounts := service.NewAccountService(users, codec, outbox,
		domain.Role{ID: cfg.Session.BasicRoleID, Name: cfg.Session.BasicRoleName},
		logger.Component(log, "account"), opts...)
	admin := service.NewUserAdminService(users, tokens, codec, outbox, cfg.Roles(),
		logger.Component(log, "user-admin"), opts...)

	trusted, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Sessions:       sessions,
		Verification:   verification,
		Accounts:       accounts,
		Users:          admin,
		Tokens:         issuer,
		Cookie:         handler.CookieConfig{Secure: cfg.SecureCookies(), Domain: cfg.Cookie.Domain},
		Health:         handler.NewHealthDependenciesHandler(db, rdb),
		TrustedProxies: trusted,
		Log:            logger.Component(log, "http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
