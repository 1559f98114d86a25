package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context with timeout for the user lookup
	"errors"   // errors.Is for classifying verification failures
	"net/http" // HTTP status codes for responses
	"time"     // lookup timeout

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/anyhire/anyhire-server/internal/model"
	"github.com/anyhire/anyhire-server/internal/repository"
	"github.com/anyhire/anyhire-server/internal/utils"
)

// AccessCookie is the cookie carrying the access token on every
// protected HTTP request.
const AccessCookie = "accessToken"

// UserLoader is the slice of the user repository the session middleware
// needs: resolving a token subject into a live user record.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates the access-token
// cookie and loads the corresponding user into the request context under
// "user". Every failure is terminal 401: a missing cookie, an expired or
// invalid token, and a token whose subject no longer exists (a deleted
// account can hold a still-valid token). The middleware never refreshes
// tokens itself; clients call the refresh endpoint separately.
func JWTAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AccessCookie)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			userID, err := utils.VerifyToken(secret, cookie.Value)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user lookup failed"})
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user stored by JWTAuth. The
// second return is false when the middleware did not run on this route.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}
