package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

// RBAC admits a request only when the role claim set by Auth is one of
// roles. A request without a role claim never passed Auth and is rejected as
// unauthorized; a known caller with the wrong role gets ErrForbidden.
func RBAC(roles ...string) echo.MiddlewareFunc {
	permitted := make(map[string]bool, len(roles))
	for _, r := range roles {
		permitted[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			switch {
			case role == "":
				return domain.ErrUnauthorized
			case !permitted[role]:
				return fmt.Errorf("%w: role %q", domain.ErrForbidden, role)
			}
			return next(c)
		}
	}
}

// AdminOnly restricts a route to administrators.
func AdminOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}

// Members admits every built-in role.
func Members() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin, domain.RoleBasic)
}
