package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
)

// CookieConfig controls the attributes of the refresh token cookie.
type CookieConfig struct {
	Secure bool
	Domain string
}

func (cc CookieConfig) set(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Domain:   cc.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   cc.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookie(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
