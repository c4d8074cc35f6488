package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/api/middleware"
	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

type stubSessionService struct {
	authenticateFn func(ctx context.Context, login, password, clientIP string) (*ports.Session, error)
	rotateFn       func(ctx context.Context, presented, clientIP string) (*ports.Session, error)
	revokeFn       func(ctx context.Context, presented, clientIP string) error
	forgotFn       func(ctx context.Context, email string) error
}

func (s *stubSessionService) Authenticate(ctx context.Context, login, password, clientIP string) (*ports.Session, error) {
	return s.authenticateFn(ctx, login, password, clientIP)
}

func (s *stubSessionService) RotateRefreshToken(ctx context.Context, presented, clientIP string) (*ports.Session, error) {
	return s.rotateFn(ctx, presented, clientIP)
}

func (s *stubSessionService) RevokeRefreshToken(ctx context.Context, presented, clientIP string) error {
	return s.revokeFn(ctx, presented, clientIP)
}

func (s *stubSessionService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

type stubVerificationService struct {
	sendFn     func(ctx context.Context, userID string) error
	validateFn func(ctx context.Context, userID, code string) error
}

func (s *stubVerificationService) SendCode(ctx context.Context, userID string) error {
	return s.sendFn(ctx, userID)
}

func (s *stubVerificationService) ValidateCode(ctx context.Context, userID, code string) error {
	return s.validateFn(ctx, userID, code)
}

type stubAccountService struct {
	registerFn func(ctx context.Context, in ports.RegistrationInput) (*domain.User, error)
	getFn      func(ctx context.Context, userID string) (*domain.User, error)
	updateFn   func(ctx context.Context, userID, name, email string) (*domain.User, error)
	redefineFn func(ctx context.Context, userID, current, next string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) GetLoggedInUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.getFn(ctx, userID)
}

func (s *stubAccountService) UpdateLoggedInUser(ctx context.Context, userID, name, email string) (*domain.User, error) {
	return s.updateFn(ctx, userID, name, email)
}

func (s *stubAccountService) RedefinePassword(ctx context.Context, userID, current, next string) error {
	return s.redefineFn(ctx, userID, current, next)
}

type stubUserAdminService struct {
	listFn       func(ctx context.Context, filter domain.UserFilter) (*domain.UserPage, error)
	getFn        func(ctx context.Context, id string) (*domain.User, error)
	addFn        func(ctx context.Context, in ports.UserInput) (*domain.User, error)
	updateFn     func(ctx context.Context, id string, in ports.UserInput) (*domain.User, error)
	updateRoleFn func(ctx context.Context, id, role string) (*domain.User, error)
	deleteFn     func(ctx context.Context, id, byIP string) error
}

func (s *stubUserAdminService) List(ctx context.Context, filter domain.UserFilter) (*domain.UserPage, error) {
	return s.listFn(ctx, filter)
}

func (s *stubUserAdminService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserAdminService) Add(ctx context.Context, in ports.UserInput) (*domain.User, error) {
	return s.addFn(ctx, in)
}

func (s *stubUserAdminService) Update(ctx context.Context, id string, in ports.UserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserAdminService) UpdateRole(ctx context.Context, id, role string) (*domain.User, error) {
	return s.updateRoleFn(ctx, id, role)
}

func (s *stubUserAdminService) Delete(ctx context.Context, id, byIP string) error {
	return s.deleteFn(ctx, id, byIP)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.IPExtractor = ClientIPExtractor(nil)
	return e
}

// newJSONContext builds a request context; an empty body sends no payload.
func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authenticated marks the context as if middleware.Auth had run.
func authenticated(c echo.Context, userID string) echo.Context {
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxUsername, "alice@example.com")
	c.Set(middleware.CtxRole, domain.RoleBasic)
	return c
}

// withUserID sets the :userId path parameter.
func withUserID(c echo.Context, id string) echo.Context {
	c.SetParamNames("userId")
	c.SetParamValues(id)
	return c
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
