// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing

	"github.com/dstav/slate/internal/handler"    // handlers implementing the endpoints
	"github.com/dstav/slate/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the auth endpoints under /v1/auth.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterBoard registers the authenticated board surface under /v1. All
// routes require a valid access token; both USER and ADMIN roles are
// accepted. The response cache mounts after authentication so cached
// entries are only ever served to the identity that produced them.
func RegisterBoard(e *echo.Echo, a *handler.AuthHandler, n *handler.NoteHandler, u *handler.UploadHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(handler.RoleUser, handler.RoleAdmin))
	if cache != nil {
		auth.Use(cache)
	}

	auth.GET("/me", a.Me)

	auth.GET("/notes", n.List)
	auth.POST("/notes", n.Post)
	auth.DELETE("/notes", n.DeleteMine)
	auth.DELETE("/notes/:id", n.DeleteOne)

	auth.POST("/uploads", u.Upload)
}

// RegisterAdmin registers user management under /v1/admin, restricted to
// the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(handler.RoleAdmin))

	g.GET("/users", h.ListUsers)
	g.DELETE("/users/:username", h.DeleteUser)
}
