package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/gearguard/gearguard/internal/api/metrics"
	"github.com/gearguard/gearguard/internal/core/ports"
)

// Context keys set by the Auth middleware.
const (
	CtxEmail = "email"
	CtxRole  = "role"
	CtxUID   = "uid"
	CtxToken = "token"
)

// Auth validates the bearer JWT, checks it against the revocation
// denylist, and injects the identity claims into the request context.
// The raw token is also injected so logout can revoke it.
func Auth(jwtSecret string, revoker ports.TokenRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			raw := parts[1]

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(c.Request().Context(), raw)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "revocation check failed")
				}
				if revoked {
					metrics.AuthRejectionsTotal.WithLabelValues("revoked").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			c.Set(CtxEmail, claims["sub"])
			c.Set(CtxRole, claims["role"])
			c.Set(CtxUID, claims["uid"])
			c.Set(CtxToken, raw)

			return next(c)
		}
	}
}
