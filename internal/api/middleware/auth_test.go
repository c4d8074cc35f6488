package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newIssuer(now time.Time) *security.JWTIssuer {
	return security.NewJWTIssuer(testSecret, time.Hour, func() time.Time { return now })
}

func runAuth(t *testing.T, issuer *security.JWTIssuer, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Auth(issuer)(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func rejectNext(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := newIssuer(now)
	signed, err := issuer.IssueAccessToken(domain.Identity{UserID: "u1", Name: "alice@example.com", Role: domain.RoleBasic})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	called := false
	rec := runAuth(t, issuer, "Bearer "+signed, func(c echo.Context) error {
		called = true
		if c.Get(CtxUserID) != "u1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(CtxUsername) != "alice@example.com" {
			t.Fatalf("username not set")
		}
		if c.Get(CtxRole) != domain.RoleBasic {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signed, err := newIssuer(issued).IssueAccessToken(domain.Identity{UserID: "u1", Name: "alice@example.com", Role: domain.RoleBasic})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := runAuth(t, newIssuer(issued.Add(2*time.Hour)), "Bearer "+signed, rejectNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec := runAuth(t, newIssuer(time.Now()), "", rejectNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec := runAuth(t, newIssuer(time.Now()), "Token abc", rejectNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec := runAuth(t, newIssuer(time.Now()), "Bearer not-a-token", rejectNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
