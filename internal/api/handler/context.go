package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gearguard/gearguard/internal/api/middleware"
	"github.com/gearguard/gearguard/internal/core/domain"
)

// ctxIdentity extracts the claims injected by the Auth middleware and
// fast-fails before any service call: a missing or unparsable role means
// the middleware did not run or the token predates the current claim set.
func ctxIdentity(c echo.Context) (email string, role domain.Role, err error) {
	email, _ = c.Get(middleware.CtxEmail).(string)
	rawRole, _ := c.Get(middleware.CtxRole).(string)

	role, parseErr := domain.ParseRole(rawRole)
	if email == "" || parseErr != nil {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return email, role, nil
}

// ctxToken returns the raw bearer token injected by the Auth middleware.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(middleware.CtxToken).(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	return token, nil
}
