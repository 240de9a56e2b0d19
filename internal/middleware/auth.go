package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/auth"
)

// usernameKey is the echo context key for the authenticated username.
const usernameKey = "auth.username"

// Username returns the authenticated username for the request, or "" on
// unauthenticated routes.
func Username(c echo.Context) string {
	username, _ := c.Get(usernameKey).(string)
	return username
}

// RequireAuth validates the Bearer token on every request and stores the
// authenticated username in the request context.
func RequireAuth(jwtManager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrMissingToken.Error())
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			}

			c.Set(usernameKey, claims.Username)
			return next(c)
		}
	}
}
