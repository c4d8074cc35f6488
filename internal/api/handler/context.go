package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/api/middleware"
)

// ctxUserID returns the authenticated subject. An empty value means the
// route was mounted without the Auth middleware, which is treated as 401.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}
