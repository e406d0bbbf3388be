package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
)

// ContextKeyUser is where the verified claims are stored on the echo context.
const ContextKeyUser = "user"

// JWTAuthMiddleware checks for a valid HS256 bearer token signed with secret
// and stores its claims on the context.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if claims.UserID == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(ContextKeyUser, claims)
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, or false when the
// request did not pass through JWTAuthMiddleware.
func UserIDFromContext(c echo.Context) (uint, bool) {
	claims, ok := c.Get(ContextKeyUser).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0, false
	}
	return claims.UserID, true
}
