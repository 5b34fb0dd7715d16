package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key the authenticated user id is stored under.
const UserIDKey = "user_id"

// AccessTokenVerifier resolves an access token to the user id it was issued for.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// Auth validates the bearer access token and injects the caller's id into
// the context. Downstream handlers trust that id without a store lookup.
func Auth(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			userID, err := verifier.VerifyAccessToken(strings.TrimSpace(parts[1]))
			if err != nil || userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}
