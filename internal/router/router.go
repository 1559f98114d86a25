package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/anyhire/anyhire-server/internal/handler"
	"github.com/anyhire/anyhire-server/internal/middleware"
	"github.com/anyhire/anyhire-server/internal/model"
	"github.com/anyhire/anyhire-server/internal/ws"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, protected endpoints under /v1. The limiter guards the
// credential endpoints against brute forcing; refresh and logout are
// cookie-driven and left unthrottled.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, users middleware.UserLoader, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	// Mint a new access token from the refresh cookie; never rotates the
	// refresh token.
	g.POST("/refresh-token", a.RefreshToken)
	// Logout is idempotent and needs no access token: it reads the
	// refresh cookie if present and clears cookies regardless.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(a.Cfg.AccessSecret, users))
	auth.GET("/auth/profile", a.Profile)
	auth.DELETE("/me", a.DeleteAccount)

	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(a.Cfg.AccessSecret, users))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", a.ListUsers)
}

// RegisterChat registers the REST chat surface and the realtime
// endpoint. REST routes require a session cookie; the socket handshake
// authenticates itself from the Bearer token in its auth payload.
func RegisterChat(e *echo.Echo, ch *handler.ChatHandler, wsh *ws.Handler, accessSecret string, users middleware.UserLoader) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(accessSecret, users))
	auth.GET("/bookings/:id/messages", ch.History)
	auth.POST("/bookings/:id/messages", ch.Send)
	auth.PATCH("/messages/:id", ch.Edit)
	auth.DELETE("/messages/:id", ch.Delete)

	e.GET("/ws", wsh.Serve)
}
