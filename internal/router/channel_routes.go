package router

import (
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/handler"
	"github.com/liveshop-app/liveshop-server/internal/middleware"
)

// RegisterChannels registers the live channel endpoints under /v1. All
// routes require a valid JWT; per-resource entitlement (host-only end,
// shop access for the showcase) is enforced inside the handlers. The
// optional extra middleware (response cache) is applied only to the two
// browse reads whose body is the same for every caller: the active channel
// list and the per-channel showcase.
func RegisterChannels(e *echo.Echo, h *handler.ChannelHandler, cp *handler.ChannelProductHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.GET("/channels", h.List, extra...)
	g.POST("/channels", h.Create)
	g.GET("/channels/:id", h.Get)
	g.POST("/channels/:id/join", h.Join)
	g.POST("/channels/:id/leave", h.Leave)
	g.POST("/channels/:id/end", h.End)
	g.GET("/channels/:id/participants", h.ListParticipants)

	// Product showcase inside a channel.
	g.GET("/channels/:id/products", cp.ListByChannel, extra...)
	g.POST("/channels/:id/products", cp.Associate)
	g.DELETE("/channels/:id/products/:productId", cp.Remove)
}
