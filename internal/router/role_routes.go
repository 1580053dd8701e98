package router

import (
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/handler"
	"github.com/liveshop-app/liveshop-server/internal/middleware"
)

// RegisterRoles registers platform role request and activation endpoints
// under /v1. The reviewer-only endpoints (activate, pending) check the
// caller's email against the configured reviewer list inside the handler.
func RegisterRoles(e *echo.Echo, h *handler.RoleHandler, jwtSecret string) {
	g := e.Group("/v1/roles", middleware.JWTAuth(jwtSecret))

	g.GET("", h.Catalog)
	g.POST("/request", h.Request)
	g.GET("/mine", h.Mine)
	g.POST("/:id/activate", h.Activate)
	g.GET("/pending", h.Pending)
}
