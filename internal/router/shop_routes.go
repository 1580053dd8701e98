package router

import (
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/handler"
	"github.com/liveshop-app/liveshop-server/internal/middleware"
)

// RegisterShops registers shop, vendor and product endpoints under /v1.
// All routes require a valid JWT. Ownership and access checks run inside
// the handlers against the user_shop_roles table, so the same group serves
// owners and vendors.
func RegisterShops(e *echo.Echo, s *handler.ShopHandler, p *handler.ProductHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- Shops ----
	g.POST("/shops", s.Create)
	g.GET("/shops", s.List)
	g.GET("/shops/:id", s.Get)
	g.PATCH("/shops/:id", s.Update)
	g.DELETE("/shops/:id", s.Delete)

	// ---- Vendors ----
	g.POST("/shops/:id/vendors", s.AddVendor)
	g.DELETE("/shops/:id/vendors/:userId", s.RemoveVendor)
	g.GET("/shops/:id/vendors", s.ListVendors)

	// ---- Products ----
	g.POST("/products", p.Create)
	g.POST("/shops/:id/products", p.Create) // nested alias, shop from path
	g.GET("/shops/:id/products", p.ListByShop)
	g.GET("/products/:id", p.Get)
	g.PATCH("/products/:id", p.Update)
	g.DELETE("/products/:id", p.Delete)
}
