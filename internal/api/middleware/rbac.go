package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// RBAC restricts a route to the given roles. It must run after Auth, which
// injects the role claim.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, _ := c.Get(CtxRole).(string)
			if _, ok := allowed[domain.Role(raw)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
