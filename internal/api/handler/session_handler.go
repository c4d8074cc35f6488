package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/api/metrics"
	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

type SessionHandler struct {
	sessions ports.SessionService
	cookie   CookieConfig
}

func NewSessionHandler(sessions ports.SessionService, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, cookie: cookie}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type revokeRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// sessionResponse is returned by login and refresh. The refresh token only
// travels in the cookie.
type sessionResponse struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Authenticate exchanges credentials for an access token and a refresh cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth [post]
func (h *SessionHandler) Authenticate(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.sessions.Authenticate(c.Request().Context(), req.Username, req.Password, clientIP(c))
	metrics.LoginsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	h.cookie.set(c, s.RefreshToken, s.RefreshExpiresAt)
	return c.JSON(http.StatusOK, toSessionResponse(s))
}

// RefreshToken rotates the refresh cookie and returns a fresh access token.
//
// @Summary      Rotate refresh token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorBody
// @Failure      500  {object}  errorBody
// @Router       /api/auth/refresh-token [post]
func (h *SessionHandler) RefreshToken(c echo.Context) error {
	presented := refreshCookie(c)
	if presented == "" {
		metrics.RefreshRotationsTotal.WithLabelValues("unauthorized").Inc()
		return domain.ErrTokenNotActive
	}

	s, err := h.sessions.RotateRefreshToken(c.Request().Context(), presented, clientIP(c))
	metrics.RefreshRotationsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	h.cookie.set(c, s.RefreshToken, s.RefreshExpiresAt)
	return c.JSON(http.StatusOK, toSessionResponse(s))
}

// RevokeToken ends the session bound to the refresh token. The token is read
// from the cookie, or from the body when no cookie is present.
//
// @Summary      Revoke refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      revokeRequest  false  "Token to revoke when no cookie is sent"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/revoke-token [post]
func (h *SessionHandler) RevokeToken(c echo.Context) error {
	presented := refreshCookie(c)
	if presented == "" && c.Request().ContentLength != 0 {
		var req revokeRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		presented = req.Token
	}
	if presented == "" {
		return domain.ErrTokenNotActive
	}

	if err := h.sessions.RevokeRefreshToken(c.Request().Context(), presented, clientIP(c)); err != nil {
		return err
	}
	metrics.RevocationsTotal.Inc()

	h.cookie.clear(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Token revoked."})
}

// ForgotPassword issues a generated password by e-mail.
//
// @Summary      Forgot password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account e-mail"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/forgot-password [post]
func (h *SessionHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.sessions.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	metrics.PasswordResetsTotal.Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "A new password was sent to your e-mail."})
}

func toSessionResponse(s *ports.Session) sessionResponse {
	return sessionResponse{
		UserID:   s.Identity.UserID,
		Name:     s.Identity.Name,
		Username: s.Identity.Email,
		Role:     s.Identity.Role,
		Token:    s.AccessToken,
	}
}

// outcome labels a service result for the session counters.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrInvalidOrExpiredCode):
		return "invalid"
	default:
		return "error"
	}
}
