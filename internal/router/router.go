package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/handler"
	"github.com/liveshop-app/liveshop-server/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, used by
// load balancers and monitoring to verify the service is up. The optional
// extra middleware (response cache) applies to these public routes only.
func RegisterRoutes(e *echo.Echo, extra ...echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health, extra...)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// token operations live under /v1/auth; /v1/me and /v1/auth/logout-all
// require a valid access token. The optional extra middleware (rate
// limiting) is applied to the public auth group only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", extra...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout-all", a.LogoutAll)
}
