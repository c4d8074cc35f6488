package api

import (
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/cecimongo/identity-api/docs"
	"github.com/cecimongo/identity-api/internal/api/handler"
	"github.com/cecimongo/identity-api/internal/api/middleware"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

// Deps bundles everything NewRouter wires into routes.
type Deps struct {
	Sessions     ports.SessionService
	Verification ports.VerificationService
	Accounts     ports.AccountService
	Users        ports.UserAdminService
	Tokens       middleware.TokenParser
	Cookie       handler.CookieConfig
	Health       *handler.HealthDependenciesHandler
	Log          zerolog.Logger

	// TrustedProxies may set X-Forwarded-For. Empty trusts no header.
	TrustedProxies []*net.IPNet

	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = handler.ClientIPExtractor(d.TrustedProxies)

	reg := d.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "identity",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	sessions := handler.NewSessionHandler(d.Sessions, d.Cookie)
	verification := handler.NewVerificationHandler(d.Verification)
	accounts := handler.NewAccountHandler(d.Accounts)
	users := handler.NewUserAdminHandler(d.Users)

	authn := middleware.Auth(d.Tokens)
	roles := middleware.Members()

	// --- Session routes ---
	auth := e.Group("/api/auth")
	auth.POST("", sessions.Authenticate)
	auth.POST("/refresh-token", sessions.RefreshToken)
	auth.POST("/revoke-token", sessions.RevokeToken)
	auth.POST("/forgot-password", sessions.ForgotPassword)
	auth.POST("/send-validation-code", verification.SendCode, authn, roles)
	auth.POST("/validate-validation-code", verification.ValidateCode, authn, roles)

	// --- Account routes ---
	register := e.Group("/api/register")
	register.POST("", accounts.Register)
	register.GET("/me", accounts.Me, authn, roles)
	register.PUT("/me", accounts.UpdateMe, authn, roles)
	register.PUT("/password", accounts.RedefinePassword, authn, roles)

	// --- User administration ---
	admin := e.Group("/api/user", authn, middleware.AdminOnly())
	admin.GET("", users.List)
	admin.POST("", users.Add)
	admin.GET("/:userId", users.Get)
	admin.PUT("/:userId", users.Update)
	admin.PUT("/:userId/role", users.UpdateRole)
	admin.DELETE("/:userId", users.Delete)

	// --- Operations (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if d.Health != nil {
		e.GET("/health/ready", d.Health.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
