package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/minsukang/codementor/pkg/auth"
	"github.com/minsukang/codementor/pkg/models"
)

// SessionMiddleware authenticates requests with the session token, taken
// from the session cookie or, failing that, a Bearer Authorization header.
// On success user_id and user_email are stored on the echo context.
func SessionMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string

			if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
				token = cookie.Value
			}

			if token == "" {
				authHeader := c.Request().Header.Get("Authorization")
				if authHeader != "" {
					parts := strings.Split(authHeader, " ")
					if len(parts) != 2 || parts[0] != "Bearer" {
						return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
							Error:   "invalid_token_format",
							Message: "Authorization header must be 'Bearer {token}'",
						})
					}
					token = parts[1]
				}
			}

			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Session cookie or Authorization header is required",
				})
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			c.Set("user_id", claims.UserID)
			c.Set("user_email", claims.Email)

			return next(c)
		}
	}
}
